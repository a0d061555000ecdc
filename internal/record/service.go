package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/SultokTheF/uiren-mobile/internal/api"
	"github.com/SultokTheF/uiren-mobile/internal/logger"
	"github.com/SultokTheF/uiren-mobile/internal/metrics"
)

const (
	recordsPath           = "api/records/"
	confirmAttendancePath = "api/records/confirm_attendance/"
	cancelReservationPath = "api/records/cancel_reservation/"

	qrSize = 256
)

type Service struct {
	client api.Doer
}

func NewService(client api.Doer) *Service {
	return &Service{client: client}
}

// Create submits a reservation of a schedule slot against a subscription.
// Backend rejections (4xx) come back as *RejectedError with the server's
// cause; the caller must not retry them silently.
func (s *Service) Create(ctx context.Context, scheduleID, subscriptionID int) (*Record, error) {
	var rec Record
	err := s.client.Post(ctx, recordsPath, map[string]int{
		"schedule":     scheduleID,
		"subscription": subscriptionID,
	}, &rec)
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && httpErr.Status >= 400 && httpErr.Status < 500 {
			metrics.RecordReservation("rejected")
			return nil, &RejectedError{Cause: rejectionCause(httpErr), Status: httpErr.Status}
		}
		metrics.RecordReservation("error")
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}

	metrics.RecordReservation("success")
	logger.Infof("Reserved slot %d with subscription %d (record %d)", scheduleID, subscriptionID, rec.ID)
	return &rec, nil
}

// Cancel cancels a previously made reservation. Canceling an already-canceled
// record is treated as success regardless of whether the backend answers 2xx
// or a conflict for it.
func (s *Service) Cancel(ctx context.Context, recordID int) error {
	err := s.client.Post(ctx, cancelReservationPath, map[string]int{"record_id": recordID}, nil)
	if err != nil {
		var httpErr *api.HTTPError
		if errors.As(err, &httpErr) && alreadyCanceled(httpErr) {
			logger.Debugf("Record %d was already canceled", recordID)
			return nil
		}
		return fmt.Errorf("failed to cancel reservation %d: %w", recordID, err)
	}

	metrics.RecordCancellation()
	return nil
}

func alreadyCanceled(err *api.HTTPError) bool {
	if err.Status == http.StatusConflict {
		return true
	}
	return strings.Contains(strings.ToLower(err.Message()), "cancel")
}

// ConfirmAttendance marks the record as attended. Driven by the front desk
// scanning the record's check-in QR.
func (s *Service) ConfirmAttendance(ctx context.Context, recordID int) error {
	err := s.client.Post(ctx, confirmAttendancePath, map[string]int{"record_id": recordID}, nil)
	if err != nil {
		return fmt.Errorf("failed to confirm attendance for record %d: %w", recordID, err)
	}

	metrics.RecordAttendanceConfirmation()
	return nil
}

// ForUser lists the user's records sorted by date, then start time, then id.
func (s *Service) ForUser(ctx context.Context, userID int) ([]Record, error) {
	query := url.Values{}
	query.Set("page", "all")
	query.Set("user", strconv.Itoa(userID))

	var records []Record
	if err := s.client.Get(ctx, recordsPath, query, &records); err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}

	sortRecords(records)
	return records, nil
}

// CheckInQR renders the record's check-in payload as a QR PNG.
func CheckInQR(rec *Record) ([]byte, error) {
	payload, err := json.Marshal(map[string]int{"record_id": rec.ID})
	if err != nil {
		return nil, err
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render check-in QR: %w", err)
	}
	return png, nil
}

func rejectionCause(err *api.HTTPError) string {
	if msg := err.Message(); msg != "" {
		return msg
	}
	return "booking_rejected"
}

// sortRecords orders by date, then start time, then record id. Same ordering
// rule the schedule view uses, with the date in front.
func sortRecords(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Schedule, records[j].Schedule
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return records[i].ID < records[j].ID
	})
}
