package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pennywise/internal/amqp"
	"pennywise/internal/analytics"
	"pennywise/internal/core"
	"pennywise/internal/log"
)

const defaultMessageLimit = 50

// GroupRepository is the storage surface for savings groups and everything
// hanging off them.
type GroupRepository interface {
	CreateGroup(ctx context.Context, g core.SavingsGroup, admin core.GroupMember) error
	GetGroup(ctx context.Context, id string) (*core.SavingsGroup, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]core.SavingsGroup, error)
	GetMember(ctx context.Context, groupID, userID string) (*core.GroupMember, error)
	ListMembers(ctx context.Context, groupID string) ([]core.GroupMember, error)

	CreateContribution(ctx context.Context, c core.Contribution) error
	ListContributions(ctx context.Context, groupID string) ([]core.Contribution, error)

	CreateInvitation(ctx context.Context, inv core.Invitation) error
	GetInvitation(ctx context.Context, id string) (*core.Invitation, error)
	ListPendingInvitations(ctx context.Context, email string) ([]core.Invitation, error)
	AcceptInvitation(ctx context.Context, invitationID string, member core.GroupMember) error
	DeclineInvitation(ctx context.Context, invitationID string) error

	CreateGroupExpense(ctx context.Context, e core.GroupExpense) error
	GetGroupExpense(ctx context.Context, groupID, id string) (*core.GroupExpense, error)
	ListGroupExpenses(ctx context.Context, groupID string) ([]core.GroupExpense, error)
	ReviewGroupExpense(ctx context.Context, e core.GroupExpense, a core.Approval, msg core.GroupMessage) error

	CreateMessage(ctx context.Context, msg core.GroupMessage) error
	ListMessages(ctx context.Context, groupID string, limit int) ([]core.GroupMessage, error)

	GetProfile(ctx context.Context, userID string) (*core.Profile, error)
}

// NotificationPublisher queues e-mail notifications for the worker. A nil
// publisher disables notifications without disabling the operations.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, msg *amqp.NotificationMessage) error
}

type (
	GroupInput struct {
		Name        string
		Description string
		GoalAmount  string
		TargetDate  string
	}

	ContributionInput struct {
		Amount      string
		Description string
		Date        string
	}

	GroupExpenseInput struct {
		Title       string
		Amount      string
		Category    string
		Description string
		Date        string
	}

	ReviewInput struct {
		Decision string
		Comment  string
	}

	// GroupDetail is a group with its roster and derived balances.
	// Contributed holds each member's lifetime contribution total.
	GroupDetail struct {
		Group       core.SavingsGroup          `json:"group"`
		Members     []core.GroupMember         `json:"members"`
		Contributed map[string]decimal.Decimal `json:"contributed"`
		NetSavings  decimal.Decimal            `json:"net_savings"`
	}

	// GroupLedger is the full financial picture of a group, used by the
	// detail endpoint and the XLSX export.
	GroupLedger struct {
		Group         core.SavingsGroup   `json:"group"`
		Members       []core.GroupMember  `json:"members"`
		Contributions []core.Contribution `json:"contributions"`
		Expenses      []core.GroupExpense `json:"expenses"`
		SpentApproved decimal.Decimal     `json:"spent_approved"`
		NetSavings    decimal.Decimal     `json:"net_savings"`
	}
)

type GroupService struct {
	repo      GroupRepository
	publisher NotificationPublisher
	logger    *log.Logger
	now       func() time.Time
}

func NewGroupService(repo GroupRepository, publisher NotificationPublisher, logger *log.Logger) *GroupService {
	return &GroupService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentGroup),
		now:       time.Now,
	}
}

// Create opens a new savings group with the creator as its admin.
func (s *GroupService) Create(ctx context.Context, userID string, in GroupInput) (*core.SavingsGroup, error) {
	goalAmount, err := core.ParseAmount(in.GoalAmount)
	if err != nil {
		return nil, err
	}

	group := core.SavingsGroup{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(in.Name),
		Description:   in.Description,
		GoalAmount:    goalAmount,
		CurrentAmount: decimal.Zero,
		CreatedBy:     userID,
		IsActive:      true,
	}
	if in.TargetDate != "" {
		if group.TargetDate, err = core.ParseDate(in.TargetDate); err != nil {
			return nil, err
		}
	}
	if err := group.Validate(); err != nil {
		return nil, err
	}

	admin := core.GroupMember{
		ID:       uuid.NewString(),
		GroupID:  group.ID,
		UserID:   userID,
		Role:     core.RoleAdmin,
		JoinedAt: s.now(),
	}

	if err := s.repo.CreateGroup(ctx, group, admin); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Savings group created",
		log.FieldGroupID, group.ID,
		log.FieldUserID, userID)
	return &group, nil
}

func (s *GroupService) List(ctx context.Context, userID string) ([]core.SavingsGroup, error) {
	return s.repo.ListGroupsForUser(ctx, userID)
}

// Get returns the group detail for a member. Non-members get ErrNotMember.
func (s *GroupService) Get(ctx context.Context, userID, groupID string) (*GroupDetail, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	spent, err := s.approvedTotal(ctx, groupID)
	if err != nil {
		return nil, err
	}

	contributions, err := s.repo.ListContributions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	contributed := make(map[string]decimal.Decimal, len(members))
	for _, m := range members {
		contributed[m.UserID] = decimal.Zero
	}
	for _, c := range contributions {
		contributed[c.UserID] = contributed[c.UserID].Add(c.Amount)
	}

	return &GroupDetail{
		Group:       *group,
		Members:     members,
		Contributed: contributed,
		NetSavings:  group.CurrentAmount.Sub(spent),
	}, nil
}

// Contribute records a member's deposit into the pool.
func (s *GroupService) Contribute(ctx context.Context, userID, groupID string, in ContributionInput) (*core.Contribution, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	// An omitted date means the deposit happened today.
	date := core.DateOnly(s.now().UTC())
	if in.Date != "" {
		date, err = core.ParseDate(in.Date)
		if err != nil {
			return nil, err
		}
	}

	contribution := core.Contribution{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		UserID:      userID,
		Amount:      amount,
		Description: in.Description,
		Date:        date,
	}
	if err := contribution.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateContribution(ctx, contribution); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Contribution recorded",
		log.FieldGroupID, groupID,
		log.FieldUserID, userID,
		log.FieldAmount, amount.String())
	return &contribution, nil
}

func (s *GroupService) Contributions(ctx context.Context, userID, groupID string) ([]core.Contribution, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListContributions(ctx, groupID)
}

// Invite creates a pending invitation and queues the notification e-mail.
func (s *GroupService) Invite(ctx context.Context, userID, groupID, email string) (*core.Invitation, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("invitee email is required")
	}

	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	invitation := core.Invitation{
		ID:           uuid.NewString(),
		GroupID:      groupID,
		InvitedBy:    userID,
		InvitedEmail: email,
		Status:       core.InvitationPending,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateInvitation(ctx, invitation); err != nil {
		return nil, err
	}

	s.publish(ctx, amqp.NewInvitationMessage(email, groupID, group.Name, s.displayName(ctx, userID), invitation.ID))

	s.logger.InfoContext(ctx, "Invitation created",
		log.FieldGroupID, groupID,
		log.FieldInvitation, invitation.ID,
		log.FieldRecipient, email)
	return &invitation, nil
}

// PendingInvitations lists the open invitations addressed to the user.
func (s *GroupService) PendingInvitations(ctx context.Context, email string) ([]core.Invitation, error) {
	return s.repo.ListPendingInvitations(ctx, strings.ToLower(strings.TrimSpace(email)))
}

// Accept joins the invited user to the group. The invitation must be
// pending and addressed to the accepting user's e-mail.
func (s *GroupService) Accept(ctx context.Context, userID, email, invitationID string) (*core.GroupMember, error) {
	invitation, err := s.repo.GetInvitation(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(invitation.InvitedEmail, strings.TrimSpace(email)) {
		return nil, ErrNotMember
	}

	member := core.GroupMember{
		ID:       uuid.NewString(),
		GroupID:  invitation.GroupID,
		UserID:   userID,
		Role:     core.RoleMember,
		JoinedAt: s.now(),
	}
	if err := s.repo.AcceptInvitation(ctx, invitationID, member); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Invitation accepted",
		log.FieldInvitation, invitationID,
		log.FieldGroupID, invitation.GroupID,
		log.FieldUserID, userID)
	return &member, nil
}

// Decline closes a pending invitation addressed to the user's e-mail.
func (s *GroupService) Decline(ctx context.Context, email, invitationID string) error {
	invitation, err := s.repo.GetInvitation(ctx, invitationID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(invitation.InvitedEmail, strings.TrimSpace(email)) {
		return ErrNotMember
	}
	return s.repo.DeclineInvitation(ctx, invitationID)
}

// SubmitExpense proposes a spend against the pool. It starts pending and
// drops an expense card into the group chat.
func (s *GroupService) SubmitExpense(ctx context.Context, userID, groupID string, in GroupExpenseInput) (*core.GroupExpense, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	amount, err := core.ParseAmount(in.Amount)
	if err != nil {
		return nil, err
	}
	date, err := core.ParseDate(in.Date)
	if err != nil {
		return nil, err
	}

	expense := core.GroupExpense{
		ID:          uuid.NewString(),
		GroupID:     groupID,
		UserID:      userID,
		Title:       in.Title,
		Amount:      amount,
		Category:    core.Category(in.Category),
		Description: in.Description,
		Date:        date,
		Status:      core.StatusPending,
	}
	if err := expense.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.CreateGroupExpense(ctx, expense); err != nil {
		return nil, err
	}

	card := core.GroupMessage{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		UserID:    userID,
		Message:   fmt.Sprintf("proposed expense %q (%s)", expense.Title, expense.Amount.StringFixed(2)),
		Type:      core.MessageExpense,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateMessage(ctx, card); err != nil {
		s.logger.WarnContext(ctx, "Failed to post expense card", log.FieldError, err)
	}

	return &expense, nil
}

// Expenses lists the group's expenses, optionally narrowed to one status.
func (s *GroupService) Expenses(ctx context.Context, userID, groupID string, status core.ExpenseStatus) ([]core.GroupExpense, error) {
	switch status {
	case "", core.StatusPending, core.StatusApproved, core.StatusRejected:
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidStatus, status)
	}
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	expenses, err := s.repo.ListGroupExpenses(ctx, groupID)
	if err != nil || status == "" {
		return expenses, err
	}
	filtered := make([]core.GroupExpense, 0, len(expenses))
	for _, e := range expenses {
		if e.Status == status {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// ReviewExpense lets an admin approve or reject a pending expense. The
// decision is terminal; the audit row and a system chat message are written
// atomically, then the submitter is notified.
func (s *GroupService) ReviewExpense(ctx context.Context, reviewerID, groupID, expenseID string, in ReviewInput) (*core.GroupExpense, error) {
	member, err := s.requireMember(ctx, groupID, reviewerID)
	if err != nil {
		return nil, err
	}
	if member.Role != core.RoleAdmin {
		return nil, ErrNotAdmin
	}

	status := core.ExpenseStatus(in.Decision)
	if !status.Decided() {
		return nil, fmt.Errorf("invalid decision %q: must be approved or rejected", in.Decision)
	}

	expense, err := s.repo.GetGroupExpense(ctx, groupID, expenseID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	expense.Status = status
	expense.ApprovedBy = reviewerID
	expense.ApprovedAt = now

	approval := core.Approval{
		ID:         uuid.NewString(),
		ExpenseID:  expenseID,
		ApproverID: reviewerID,
		Status:     status,
		Comment:    in.Comment,
		CreatedAt:  now,
	}
	systemMsg := core.GroupMessage{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		UserID:    reviewerID,
		Message:   fmt.Sprintf("expense %q was %s", expense.Title, status),
		Type:      core.MessageSystem,
		CreatedAt: now,
	}

	if err := s.repo.ReviewGroupExpense(ctx, *expense, approval, systemMsg); err != nil {
		return nil, err
	}

	group, err := s.repo.GetGroup(ctx, groupID)
	if err == nil {
		if submitter, perr := s.repo.GetProfile(ctx, expense.UserID); perr == nil && submitter.Email != "" {
			s.publish(ctx, amqp.NewExpenseReviewedMessage(
				submitter.Email, groupID, group.Name, s.displayName(ctx, reviewerID),
				expense.Title, expense.Amount.StringFixed(2), string(status)))
		}
	}

	s.logger.InfoContext(ctx, "Group expense reviewed",
		log.FieldGroupID, groupID,
		log.FieldExpenseID, expenseID,
		log.FieldOperation, log.OpReview,
		"decision", string(status))
	return expense, nil
}

func (s *GroupService) Messages(ctx context.Context, userID, groupID string, limit int) ([]core.GroupMessage, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = defaultMessageLimit
	}
	return s.repo.ListMessages(ctx, groupID, limit)
}

func (s *GroupService) PostMessage(ctx context.Context, userID, groupID, text string) (*core.GroupMessage, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("message text is required")
	}
	if len(text) > 1000 {
		return nil, fmt.Errorf("message too long (max 1000 characters)")
	}

	msg := core.GroupMessage{
		ID:        uuid.NewString(),
		GroupID:   groupID,
		UserID:    userID,
		Message:   text,
		Type:      core.MessageText,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateMessage(ctx, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Ledger assembles the group's complete financial history.
func (s *GroupService) Ledger(ctx context.Context, userID, groupID string) (*GroupLedger, error) {
	if _, err := s.requireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}

	group, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	contributions, err := s.repo.ListContributions(ctx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := s.repo.ListGroupExpenses(ctx, groupID)
	if err != nil {
		return nil, err
	}

	spent := decimal.Zero
	for _, e := range analytics.FromGroupExpenses(expenses) {
		spent = spent.Add(e.Amount)
	}

	return &GroupLedger{
		Group:         *group,
		Members:       members,
		Contributions: contributions,
		Expenses:      expenses,
		SpentApproved: spent,
		NetSavings:    group.CurrentAmount.Sub(spent),
	}, nil
}

func (s *GroupService) requireMember(ctx context.Context, groupID, userID string) (*core.GroupMember, error) {
	member, err := s.repo.GetMember(ctx, groupID, userID)
	if err != nil {
		return nil, ErrNotMember
	}
	return member, nil
}

func (s *GroupService) approvedTotal(ctx context.Context, groupID string) (decimal.Decimal, error) {
	expenses, err := s.repo.ListGroupExpenses(ctx, groupID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range analytics.FromGroupExpenses(expenses) {
		total = total.Add(e.Amount)
	}
	return total, nil
}

func (s *GroupService) displayName(ctx context.Context, userID string) string {
	if profile, err := s.repo.GetProfile(ctx, userID); err == nil && profile.FullName != "" {
		return profile.FullName
	}
	return userID
}

func (s *GroupService) publish(ctx context.Context, msg *amqp.NotificationMessage) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishNotification(ctx, msg); err != nil {
		// Notifications are best effort; the operation itself succeeded.
		s.logger.WarnContext(ctx, "Failed to publish notification",
			log.FieldEvent, msg.Event, log.FieldError, err)
	}
}
