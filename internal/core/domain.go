package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

const (
	CategoryFoodDining     Category = "food_dining"
	CategoryTransportation Category = "transportation"
	CategoryShopping       Category = "shopping"
	CategoryEntertainment  Category = "entertainment"
	CategoryUtilities      Category = "utilities"
	CategoryHealthcare     Category = "healthcare"
	CategoryEducation      Category = "education"
	CategoryTravel         Category = "travel"
	CategorySubscriptions  Category = "subscriptions"
	CategoryOther          Category = "other"
)

const (
	StatusPending  ExpenseStatus = "pending"
	StatusApproved ExpenseStatus = "approved"
	StatusRejected ExpenseStatus = "rejected"
)

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationDeclined InvitationStatus = "declined"
)

const (
	MessageText    MessageType = "text"
	MessageSystem  MessageType = "system"
	MessageExpense MessageType = "expense"
)

type (
	// Period is the window used to filter expenses for display and goal
	// tracking.
	Period string

	// Category is the closed set of expense purposes. Budget goals use the
	// same set.
	Category string

	ExpenseStatus    string
	MemberRole       string
	InvitationStatus string
	MessageType      string

	// Expense is a single recorded spending of one user. Date carries no
	// time component.
	Expense struct {
		ID          string
		UserID      string
		Title       string
		Amount      decimal.Decimal
		Category    Category
		Description string
		Date        time.Time
		CreatedAt   time.Time
		UpdatedAt   time.Time
	}

	// BudgetGoal is a user-defined spending cap for a category over a period.
	BudgetGoal struct {
		ID       string
		UserID   string
		Category Category
		Amount   decimal.Decimal
		Period   Period
	}

	// Profile holds per-user display settings and the optional salary
	// baseline used by budget-usage insights.
	Profile struct {
		UserID        string
		FullName      string
		Email         string
		MonthlySalary decimal.Decimal
		HasSalary     bool
		Currency      string
	}

	// SavingsGroup is a collaborative pool of contributions toward a shared
	// monetary goal.
	SavingsGroup struct {
		ID            string
		Name          string
		Description   string
		GoalAmount    decimal.Decimal
		CurrentAmount decimal.Decimal
		TargetDate    time.Time
		CreatedBy     string
		IsActive      bool
	}

	GroupMember struct {
		ID       string
		GroupID  string
		UserID   string
		Role     MemberRole
		JoinedAt time.Time
	}

	Contribution struct {
		ID          string
		GroupID     string
		UserID      string
		Amount      decimal.Decimal
		Description string
		Date        time.Time
	}

	// GroupExpense is an expense proposed against a group's pooled funds,
	// subject to admin approval. Status is terminal once decided.
	GroupExpense struct {
		ID          string
		GroupID     string
		UserID      string
		Title       string
		Amount      decimal.Decimal
		Category    Category
		Description string
		Date        time.Time
		Status      ExpenseStatus
		ApprovedBy  string
		ApprovedAt  time.Time
	}

	// Approval is the audit row written when a group expense is reviewed.
	Approval struct {
		ID         string
		ExpenseID  string
		ApproverID string
		Status     ExpenseStatus
		Comment    string
		CreatedAt  time.Time
	}

	GroupMessage struct {
		ID        string
		GroupID   string
		UserID    string
		Message   string
		Type      MessageType
		CreatedAt time.Time
	}

	Invitation struct {
		ID           string
		GroupID      string
		InvitedBy    string
		InvitedEmail string
		Status       InvitationStatus
		CreatedAt    time.Time
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidPeriod   = errors.New("invalid period")
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrEmptyTitle      = errors.New("empty title")
	ErrEmptyName       = errors.New("empty name")
)

// Categories lists the closed enumeration in its canonical order.
func Categories() []Category {
	return []Category{
		CategoryFoodDining,
		CategoryTransportation,
		CategoryShopping,
		CategoryEntertainment,
		CategoryUtilities,
		CategoryHealthcare,
		CategoryEducation,
		CategoryTravel,
		CategorySubscriptions,
		CategoryOther,
	}
}

func (c Category) Valid() bool {
	switch c {
	case CategoryFoodDining, CategoryTransportation, CategoryShopping,
		CategoryEntertainment, CategoryUtilities, CategoryHealthcare,
		CategoryEducation, CategoryTravel, CategorySubscriptions, CategoryOther:
		return true
	default:
		return false
	}
}

func (p Period) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly:
		return true
	default:
		return false
	}
}

func (s ExpenseStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	default:
		return false
	}
}

// Decided reports whether the status is terminal.
func (s ExpenseStatus) Decided() bool {
	return s == StatusApproved || s == StatusRejected
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("title too long (max 200 characters)")
	}
	if e.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (g BudgetGoal) Validate() error {
	if !g.Category.Valid() {
		return ErrInvalidCategory
	}
	if g.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !g.Period.Valid() {
		return ErrInvalidPeriod
	}
	return nil
}

func (g SavingsGroup) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if len(g.Name) > 100 {
		return errors.New("name too long (max 100 characters)")
	}
	if len(g.Description) > 500 {
		return errors.New("description too long (max 500 characters)")
	}
	if g.GoalAmount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

func (c Contribution) Validate() error {
	if c.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if c.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (e GroupExpense) Validate() error {
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if e.Amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if !e.Category.Valid() {
		return ErrInvalidCategory
	}
	if e.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
