package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"timebook/internal/core"
)

const maxBodyBytes = 1 << 20 // 1MB

type (
	cellEntryPayload struct {
		// ID zero marks a new line item.
		ID          int64           `json:"id"`
		Description string          `json:"description"`
		Hours       decimal.Decimal `json:"hours"`
	}

	cellSyncRequest struct {
		ClientID    int64              `json:"client_id"`
		Date        string             `json:"date"`
		Entries     []cellEntryPayload `json:"entries"`
		ExistingIDs []int64            `json:"existing_ids"`
	}

	projectionRequest struct {
		ClientID int64           `json:"client_id"`
		Date     string          `json:"date"`
		Hours    decimal.Decimal `json:"hours"`
	}

	monthRequest struct {
		Year  int    `json:"year"`
		Month int    `json:"month"`
		Mode  string `json:"mode"`
	}
)

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}

func (req cellSyncRequest) validate() error {
	if req.ClientID <= 0 {
		return fmt.Errorf("client_id is required")
	}
	for i, e := range req.Entries {
		if e.Hours.IsNegative() {
			return fmt.Errorf("entries[%d]: %w", i, core.ErrInvalidHours)
		}
	}
	return nil
}

// parseYearMonth reads year/month query parameters, falling back to the
// given date's month when absent.
func parseYearMonth(r *http.Request, fallback core.Date) (int, time.Month, error) {
	year := fallback.Year
	month := int(fallback.Month)

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid year %q", v)
		}
		year = y
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid month %q", v)
		}
		month = m
	}
	if month < 1 || month > 12 {
		return 0, 0, fmt.Errorf("month %d out of range", month)
	}
	return year, time.Month(month), nil
}

func yearMonthOf(req monthRequest) (int, time.Month, error) {
	if req.Month < 1 || req.Month > 12 {
		return 0, 0, fmt.Errorf("month %d out of range", req.Month)
	}
	return req.Year, time.Month(req.Month), nil
}
