package store

import (
	"context"
	"sort"
	"time"

	checkinstore "impact/internal/checkin/store"
	"impact/internal/stats/models"
)

// InMemoryStore computes reports by scanning the in-memory audit log.
type InMemoryStore struct {
	audit *checkinstore.InMemoryStore
}

func NewInMemoryStore(audit *checkinstore.InMemoryStore) *InMemoryStore {
	return &InMemoryStore{audit: audit}
}

func (s *InMemoryStore) CountByValidator(_ context.Context, from, to time.Time) ([]models.ValidatorCount, error) {
	grouped := make(map[string]*models.ValidatorCount)
	for _, record := range s.audit.All() {
		if !record.IsSuccessful || !inWindow(record.DateTime, from, to) {
			continue
		}
		key := ""
		if record.ValidatedByCardID != nil {
			key = *record.ValidatedByCardID
		}
		entry, ok := grouped[key]
		if !ok {
			entry = &models.ValidatorCount{
				ValidatorCardID:  record.ValidatedByCardID,
				ValidatorName:    record.ValidatedByName,
				ValidatorSurname: record.ValidatedBySurname,
			}
			grouped[key] = entry
		}
		entry.Count++
	}

	out := make([]models.ValidatorCount, 0, len(grouped))
	for _, entry := range grouped {
		out = append(out, *entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return cardKey(out[i].ValidatorCardID) < cardKey(out[j].ValidatorCardID)
	})
	return out, nil
}

func (s *InMemoryStore) DetailedByValidator(_ context.Context, validatorCardID string, from, to time.Time, offset, limit int) ([]models.CheckInDetail, int, error) {
	var matched []models.CheckInDetail
	for _, record := range s.audit.All() {
		if record.ValidatedByCardID == nil || *record.ValidatedByCardID != validatorCardID {
			continue
		}
		if !inWindow(record.DateTime, from, to) {
			continue
		}
		matched = append(matched, models.CheckInDetail{
			MemberName:     record.MemberName,
			MemberSurname:  record.MemberSurname,
			DateTime:       record.DateTime,
			IsSuccessful:   record.IsSuccessful,
			RejectedReason: record.RejectedReason,
		})
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].DateTime.Before(matched[j].DateTime) })

	total := len(matched)
	if offset >= total {
		return []models.CheckInDetail{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func inWindow(at, from, to time.Time) bool {
	return !at.Before(from) && !at.After(to)
}

func cardKey(cardID *string) string {
	if cardID == nil {
		return ""
	}
	return *cardID
}
