package email

const (
	subjectHandoffFmt     = "Lead handoff: %s"
	subjectAppointmentFmt = "Konsultasi baru: %s"
)
