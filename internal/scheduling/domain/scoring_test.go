package domain_test

import (
	"testing"
	"time"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/mugi0227/nagi-scheduler/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
)

func TestBaseScore(t *testing.T) {
	base := domain.ScoreInputs{
		Importance:  value_objects.ImportanceLow,
		Urgency:     value_objects.UrgencyLow,
		EnergyLevel: value_objects.EnergyHigh,
	}

	baseline := domain.BaseScore(base)

	t.Run("higher importance scores higher", func(t *testing.T) {
		in := base
		in.Importance = value_objects.ImportanceHigh
		assert.Greater(t, domain.BaseScore(in), baseline)
	})

	t.Run("higher urgency scores higher", func(t *testing.T) {
		in := base
		in.Urgency = value_objects.UrgencyHigh
		assert.Greater(t, domain.BaseScore(in), baseline)
	})

	t.Run("in-progress tasks get a small bonus", func(t *testing.T) {
		in := base
		in.InProgress = true
		assert.Greater(t, domain.BaseScore(in), baseline)
	})

	t.Run("low energy tasks get a small bonus", func(t *testing.T) {
		in := base
		in.EnergyLevel = value_objects.EnergyLow
		assert.Greater(t, domain.BaseScore(in), baseline)
	})

	t.Run("zero project priority resolves to the default weighting", func(t *testing.T) {
		withZero := base
		withZero.ProjectPriority = 0
		withDefault := base
		withDefault.ProjectPriority = domain.DefaultProjectPriority
		assert.Equal(t, domain.BaseScore(withDefault), domain.BaseScore(withZero))
	})

	t.Run("higher project priority scores higher", func(t *testing.T) {
		in := base
		in.ProjectPriority = 10
		assert.Greater(t, domain.BaseScore(in), baseline)
	})
}

func TestDueBonus(t *testing.T) {
	reference := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	t.Run("nil due date gets no bonus", func(t *testing.T) {
		assert.Equal(t, 0.0, domain.DueBonus(nil, reference))
	})

	t.Run("due today gets the max bonus", func(t *testing.T) {
		due := reference
		assert.Equal(t, domain.MaxDueBonus, domain.DueBonus(&due, reference))
	})

	t.Run("overdue gets the max bonus", func(t *testing.T) {
		due := reference.AddDate(0, 0, -3)
		assert.Equal(t, domain.MaxDueBonus, domain.DueBonus(&due, reference))
	})

	t.Run("due beyond the horizon gets no bonus", func(t *testing.T) {
		due := reference.AddDate(0, 0, int(domain.DueBonusHorizonDays))
		assert.Equal(t, 0.0, domain.DueBonus(&due, reference))
	})

	t.Run("due date interpolates linearly within the horizon", func(t *testing.T) {
		due := reference.AddDate(0, 0, 7)
		got := domain.DueBonus(&due, reference)
		assert.Greater(t, got, 0.0)
		assert.Less(t, got, domain.MaxDueBonus)
	})
}

func TestScore_CombinesBaseAndDueBonus(t *testing.T) {
	reference := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	in := domain.ScoreInputs{Importance: value_objects.ImportanceLow, Urgency: value_objects.UrgencyLow, DueDate: &reference}

	assert.Equal(t, domain.BaseScore(in)+domain.MaxDueBonus, domain.Score(in, reference))
}

func TestLessByTieBreak(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	earlier := now.Add(-time.Hour)
	dueSoon := now.AddDate(0, 0, 1)
	dueLater := now.AddDate(0, 0, 5)

	t.Run("higher score wins regardless of dates", func(t *testing.T) {
		assert.True(t, domain.LessByTieBreak(10, 5, nil, nil, now, now))
		assert.False(t, domain.LessByTieBreak(5, 10, nil, nil, now, now))
	})

	t.Run("a due date beats no due date at equal score", func(t *testing.T) {
		assert.True(t, domain.LessByTieBreak(10, 10, &dueSoon, nil, now, now))
		assert.False(t, domain.LessByTieBreak(10, 10, nil, &dueSoon, now, now))
	})

	t.Run("earlier due date wins when both have one", func(t *testing.T) {
		assert.True(t, domain.LessByTieBreak(10, 10, &dueSoon, &dueLater, now, now))
	})

	t.Run("earlier created_at is the final tiebreak", func(t *testing.T) {
		assert.True(t, domain.LessByTieBreak(10, 10, nil, nil, earlier, now))
		assert.False(t, domain.LessByTieBreak(10, 10, nil, nil, now, earlier))
	})
}
