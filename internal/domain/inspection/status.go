package inspection

import (
	"strings"

	"github.com/repairshop/backend/internal/domain/shared"
)

// ReportStatus is the closed internal vocabulary for inspection report states.
// Raw strings found in the data are converted once, at the boundary, by Canonicalize or ParseReportStatus.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusCancelled ReportStatus = "cancelled"
	ReportStatusShipped   ReportStatus = "shipped"
)

// String returns the string representation of ReportStatus
func (s ReportStatus) String() string {
	return string(s)
}

// IsValid returns true if the status is one of the canonical values
func (s ReportStatus) IsValid() bool {
	switch s {
	case ReportStatusPending, ReportStatusCompleted, ReportStatusCancelled, ReportStatusShipped:
		return true
	}
	return false
}

// ErrInvalidStatus is returned by ParseReportStatus for strings with no canonical mapping
var ErrInvalidStatus = shared.NewDomainError("INVALID_STATUS", "Unrecognised report status")

// aliases lists every spelling observed in the data, keyed by canonical status.
// Entries go through shared.FoldText, so case, width and separator variants need no entry of their own.
var aliases = map[ReportStatus][]string{
	ReportStatusPending: {
		"pending", "active", "in progress", "in-progress", "in_progress", "inprogress",
		"new", "open", "waiting", "on hold", "under inspection",
		"قيد الانتظار", "قيد الفحص", "قيد التنفيذ", "قيد الصيانة", "جديد", "نشط", "معلق", "انتظار",
	},
	ReportStatusCompleted: {
		"completed", "complete", "done", "finished", "closed", "ready",
		"مكتمل", "مكتملة", "تم", "منتهي", "تم الانتهاء", "جاهز",
	},
	ReportStatusCancelled: {
		"cancelled", "canceled", "cancel", "rejected", "void",
		"ملغي", "ملغى", "ملغاة", "تم الالغاء", "مرفوض",
	},
	ReportStatusShipped: {
		"shipped", "delivered", "sent",
		"تم الشحن", "مشحون", "تم التسليم", "تم الارسال",
	},
}

var lookup = buildLookup()

func buildLookup() map[string]ReportStatus {
	m := make(map[string]ReportStatus)
	for status, spellings := range aliases {
		m[shared.FoldText(string(status))] = status
		for _, s := range spellings {
			m[shared.FoldText(s)] = status
		}
	}
	return m
}

// Canonicalize maps any stored status string to the internal vocabulary.
// Empty and unknown values map to pending; known reports whether the value was recognised.
func Canonicalize(raw string) (status ReportStatus, known bool) {
	key := shared.FoldText(raw)
	if key == "" {
		return ReportStatusPending, true
	}
	if s, ok := lookup[key]; ok {
		return s, true
	}
	return ReportStatusPending, false
}

// CanonicalizePtr is Canonicalize for nullable columns
func CanonicalizePtr(raw *string) ReportStatus {
	if raw == nil {
		return ReportStatusPending
	}
	s, _ := Canonicalize(*raw)
	return s
}

// ParseReportStatus is the strict form used for incoming requests: unknown values are rejected
func ParseReportStatus(raw string) (ReportStatus, error) {
	key := shared.FoldText(raw)
	if s, ok := lookup[key]; ok && key != "" {
		return s, nil
	}
	return "", ErrInvalidStatus.Withf("Unrecognised report status: %s", strings.TrimSpace(raw))
}
