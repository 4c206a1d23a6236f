package models

import (
	"time"

	"gorm.io/gorm"
)

type SubscriptionPlan string

const (
	PlanStarter SubscriptionPlan = "starter"
	PlanMedium  SubscriptionPlan = "medium"
	PlanPro     SubscriptionPlan = "pro"
)

func (p SubscriptionPlan) Valid() bool {
	return p == PlanStarter || p == PlanMedium || p == PlanPro
}

// Subscription is upserted in place, one row per user. Plan changes overwrite
// the dates; history is not retained.
type Subscription struct {
	gorm.Model
	UserID                uint             `json:"userId" gorm:"uniqueIndex"`
	Plan                  SubscriptionPlan `json:"plan" gorm:"type:varchar(20)"`
	IsTrial               bool             `json:"isTrial"`
	TrialExpiresAt        *time.Time       `json:"trialExpiresAt"`
	SubscriptionStartDate time.Time        `json:"subscriptionStartDate"`
	SubscriptionEndDate   time.Time        `json:"subscriptionEndDate"`
}

func (s *Subscription) Active(now time.Time) bool {
	if s.IsTrial {
		return s.TrialExpiresAt != nil && now.Before(*s.TrialExpiresAt)
	}
	return now.Before(s.SubscriptionEndDate)
}
