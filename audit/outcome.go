package audit

type Status string

const (
	StatusOK       Status = "ok"
	StatusDegraded Status = "degraded"
	StatusFailed   Status = "failed"
)

// Outcome separates real results from best-effort ones so callers can decide
// how to present them. Report is nil only when Status is StatusFailed.
type Outcome struct {
	Status Status
	Report *AuditData
	Reason string
	Err    error
}

func Ok(report *AuditData) Outcome {
	report.Status = StatusOK
	report.DegradedReason = ""
	return Outcome{Status: StatusOK, Report: report}
}

func Degraded(report *AuditData, reason string) Outcome {
	report.Status = StatusDegraded
	report.DegradedReason = reason
	return Outcome{Status: StatusDegraded, Report: report, Reason: reason}
}

func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Reason: err.Error(), Err: err}
}

func (o Outcome) Failed() bool {
	return o.Status == StatusFailed
}
