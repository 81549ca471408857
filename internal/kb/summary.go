package kb

import "time"

// Summary aggregates the outcome of one export run.
type Summary struct {
	RunID                 string
	StartedAt             time.Time
	FinishedAt            time.Time
	Projects              int
	ArticlesExported      int
	ArticlesSkipped       int
	AttachmentsDownloaded int
	AttachmentsFailed     int
	Warnings              int
}

// Duration returns the wall-clock time of the run.
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}
