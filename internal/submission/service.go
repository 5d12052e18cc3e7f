package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/watermon-core/internal/infrastructure/logging"
	"github.com/nerrad567/watermon-core/internal/journal"
	"github.com/nerrad567/watermon-core/internal/meter"
)

// Writer stores validated readings. Implemented by influxdb.Client.
type Writer interface {
	WriteReading(ctx context.Context, r meter.Reading) error
}

// Announcer publishes accepted readings. Implemented by mqtt.Client.
type Announcer interface {
	PublishReading(r meter.Reading) error
}

// Options configures a Service.
type Options struct {
	// Rooms is the validated meter configuration, in display order.
	Rooms []meter.Room

	// Writer is the time-series store. Required.
	Writer Writer

	// Journal records per-meter outcomes. Optional; nil disables journalling.
	Journal journal.Repository

	// Announcer publishes accepted readings. Optional; nil disables announcements.
	Announcer Announcer

	// Location is the timezone for reading timestamps. Required.
	Location *time.Location

	// Logger for per-meter warnings. Required.
	Logger *logging.Logger

	// Now overrides the clock, for tests. Defaults to time.Now.
	Now func() time.Time
}

// Service processes reading submissions.
type Service struct {
	rooms     []meter.Room
	index     meter.Index
	writer    Writer
	journal   journal.Repository
	announcer Announcer
	location  *time.Location
	logger    *logging.Logger
	now       func() time.Time
}

// New creates a submission service from validated configuration.
func New(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		rooms:     opts.Rooms,
		index:     meter.NewIndex(opts.Rooms),
		writer:    opts.Writer,
		journal:   opts.Journal,
		announcer: opts.Announcer,
		location:  opts.Location,
		logger:    opts.Logger,
		now:       now,
	}
}

// Rooms returns the meter configuration in display order.
func (s *Service) Rooms() []meter.Room {
	return s.rooms
}

// Submit processes one form submission.
//
// values maps meter id to the raw form field value. Meters are processed
// in configuration order, each independently; a missing key is treated
// the same as a blank field. All written points share one timestamp,
// truncated to second precision in the configured timezone.
//
// Submit always returns a complete Result — per-meter problems are
// reported as outcomes, never as an error from this method.
func (s *Service) Submit(ctx context.Context, values map[string]string) *Result {
	result := &Result{
		SubmissionID: "sub-" + uuid.NewString()[:8],
		Timestamp:    s.now().In(s.location).Truncate(time.Second),
	}

	for _, room := range s.rooms {
		for _, m := range room.Meters {
			mr := s.processMeter(ctx, m, room.Name, values[m.ID], result.Timestamp)
			s.record(ctx, result.SubmissionID, mr)
			result.Results = append(result.Results, mr)

			switch mr.Outcome {
			case OutcomeWritten:
				result.Written++
			case OutcomeSkipped:
				result.Skipped++
			case OutcomeInvalid:
				result.Invalid++
			case OutcomeWriteFailed:
				result.Failed++
			}
		}
	}

	s.logger.Info("submission processed",
		"submission_id", result.SubmissionID,
		"written", result.Written,
		"skipped", result.Skipped,
		"invalid", result.Invalid,
		"failed", result.Failed,
	)

	return result
}

// SubmitSingle processes a reading for one meter, outside a full form
// submission. Used by the single-reading API endpoint.
//
// Returns meter.ErrUnknownMeter if the id is not configured.
func (s *Service) SubmitSingle(ctx context.Context, meterID, value string) (MeterResult, error) {
	entry, ok := s.index.Lookup(meterID)
	if !ok {
		return MeterResult{}, fmt.Errorf("%w: %q", meter.ErrUnknownMeter, meterID)
	}

	ts := s.now().In(s.location).Truncate(time.Second)
	mr := s.processMeter(ctx, entry.Meter, entry.Room, value, ts)
	s.record(ctx, "sub-"+uuid.NewString()[:8], mr)

	return mr, nil
}

// processMeter validates, transforms, and stores one meter's field value.
func (s *Service) processMeter(ctx context.Context, m meter.Meter, room, raw string, ts time.Time) MeterResult {
	mr := MeterResult{
		MeterID:   m.ID,
		MeterName: m.Name,
		Room:      room,
	}

	stored, skipped, err := meter.Transform(m, raw)
	if err != nil {
		mr.Outcome = OutcomeInvalid
		mr.Error = err.Error()
		s.logger.Warn("invalid reading",
			"meter", m.ID,
			"room", room,
			"error", err,
		)
		return mr
	}
	if skipped {
		mr.Outcome = OutcomeSkipped
		return mr
	}

	reading := meter.Reading{
		MeterID:     m.ID,
		Room:        room,
		Timestamp:   ts,
		RawValue:    stored - m.Offset,
		StoredValue: stored,
	}

	if err := s.writer.WriteReading(ctx, reading); err != nil {
		mr.Outcome = OutcomeWriteFailed
		mr.Error = err.Error()
		s.logger.Error("store write failed",
			"meter", m.ID,
			"room", room,
			"error", err,
		)
		return mr
	}

	mr.Outcome = OutcomeWritten
	mr.StoredValue = &stored

	s.announce(reading)

	return mr
}

// announce publishes an accepted reading, best-effort.
func (s *Service) announce(r meter.Reading) {
	if s.announcer == nil {
		return
	}
	if err := s.announcer.PublishReading(r); err != nil {
		s.logger.Warn("reading announcement failed",
			"meter", r.MeterID,
			"room", r.Room,
			"error", err,
		)
	}
}

// record journals one meter outcome, best-effort.
func (s *Service) record(ctx context.Context, submissionID string, mr MeterResult) {
	if s.journal == nil {
		return
	}

	entry := &journal.Entry{
		SubmissionID: submissionID,
		MeterID:      mr.MeterID,
		Room:         mr.Room,
		Outcome:      string(mr.Outcome),
		StoredValue:  mr.StoredValue,
		Error:        mr.Error,
	}
	if err := s.journal.Create(ctx, entry); err != nil {
		s.logger.Warn("journal write failed",
			"meter", mr.MeterID,
			"error", err,
		)
	}
}
