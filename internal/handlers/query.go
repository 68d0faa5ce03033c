package handlers

import (
	"fmt"
	"net/url"
	"time"

	"tradejournal/internal/apperrors"
	"tradejournal/internal/store"
)

const dateLayout = "2006-01-02"

// parseTime accepts RFC 3339 timestamps or plain dates. A plain date used as an upper bound
// covers the whole day.
func parseTime(q url.Values, key string, endOfDay bool) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD or RFC 3339", apperrors.ErrValidation, key)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}

func dateRange(q url.Values) (from, to *time.Time, err error) {
	if from, err = parseTime(q, "from", false); err != nil {
		return nil, nil, err
	}
	if to, err = parseTime(q, "to", true); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, fmt.Errorf("%w: to is before from", apperrors.ErrValidation)
	}
	return from, to, nil
}

func tradeFilter(q url.Values) (store.TradeFilter, error) {
	f := store.TradeFilter{
		JournalID: q.Get("journalId"),
		Symbol:    q.Get("symbol"),
		Playbook:  q.Get("playbook"),
		Status:    q.Get("status"),
	}
	switch f.Status {
	case "", store.StatusOpen, store.StatusClosed:
	default:
		return f, fmt.Errorf("%w: status must be open or closed", apperrors.ErrValidation)
	}
	var err error
	f.From, f.To, err = dateRange(q)
	return f, err
}
