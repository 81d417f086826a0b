package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pennywise/internal/amqp"
	"pennywise/internal/core"
	"pennywise/internal/log"
	"pennywise/internal/storage"
)

type fakeGroupRepo struct {
	groups        map[string]*core.SavingsGroup
	members       map[string][]core.GroupMember
	contributions map[string][]core.Contribution
	invitations   map[string]*core.Invitation
	expenses      map[string]*core.GroupExpense
	approvals     []core.Approval
	messages      map[string][]core.GroupMessage
	profiles      map[string]*core.Profile
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:        make(map[string]*core.SavingsGroup),
		members:       make(map[string][]core.GroupMember),
		contributions: make(map[string][]core.Contribution),
		invitations:   make(map[string]*core.Invitation),
		expenses:      make(map[string]*core.GroupExpense),
		messages:      make(map[string][]core.GroupMessage),
		profiles:      make(map[string]*core.Profile),
	}
}

func (f *fakeGroupRepo) CreateGroup(_ context.Context, g core.SavingsGroup, admin core.GroupMember) error {
	f.groups[g.ID] = &g
	f.members[g.ID] = append(f.members[g.ID], admin)
	return nil
}

func (f *fakeGroupRepo) GetGroup(_ context.Context, id string) (*core.SavingsGroup, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *g
	return &copied, nil
}

func (f *fakeGroupRepo) ListGroupsForUser(_ context.Context, userID string) ([]core.SavingsGroup, error) {
	var out []core.SavingsGroup
	for id, members := range f.members {
		for _, m := range members {
			if m.UserID == userID {
				out = append(out, *f.groups[id])
			}
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) GetMember(_ context.Context, groupID, userID string) (*core.GroupMember, error) {
	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			copied := m
			return &copied, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (f *fakeGroupRepo) ListMembers(_ context.Context, groupID string) ([]core.GroupMember, error) {
	return f.members[groupID], nil
}

func (f *fakeGroupRepo) CreateContribution(_ context.Context, c core.Contribution) error {
	g, ok := f.groups[c.GroupID]
	if !ok {
		return storage.ErrNotFound
	}
	f.contributions[c.GroupID] = append(f.contributions[c.GroupID], c)
	g.CurrentAmount = g.CurrentAmount.Add(c.Amount)
	return nil
}

func (f *fakeGroupRepo) ListContributions(_ context.Context, groupID string) ([]core.Contribution, error) {
	return f.contributions[groupID], nil
}

func (f *fakeGroupRepo) CreateInvitation(_ context.Context, inv core.Invitation) error {
	for _, existing := range f.invitations {
		if existing.GroupID == inv.GroupID && existing.InvitedEmail == inv.InvitedEmail &&
			existing.Status == core.InvitationPending {
			return storage.ErrAlreadyInvited
		}
	}
	f.invitations[inv.ID] = &inv
	return nil
}

func (f *fakeGroupRepo) GetInvitation(_ context.Context, id string) (*core.Invitation, error) {
	inv, ok := f.invitations[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *inv
	return &copied, nil
}

func (f *fakeGroupRepo) ListPendingInvitations(_ context.Context, email string) ([]core.Invitation, error) {
	var out []core.Invitation
	for _, inv := range f.invitations {
		if inv.InvitedEmail == email && inv.Status == core.InvitationPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) AcceptInvitation(_ context.Context, invitationID string, member core.GroupMember) error {
	inv, ok := f.invitations[invitationID]
	if !ok || inv.Status != core.InvitationPending {
		return storage.ErrNotFound
	}
	for _, m := range f.members[member.GroupID] {
		if m.UserID == member.UserID {
			return storage.ErrAlreadyMember
		}
	}
	inv.Status = core.InvitationAccepted
	f.members[member.GroupID] = append(f.members[member.GroupID], member)
	return nil
}

func (f *fakeGroupRepo) DeclineInvitation(_ context.Context, invitationID string) error {
	inv, ok := f.invitations[invitationID]
	if !ok || inv.Status != core.InvitationPending {
		return storage.ErrNotFound
	}
	inv.Status = core.InvitationDeclined
	return nil
}

func (f *fakeGroupRepo) CreateGroupExpense(_ context.Context, e core.GroupExpense) error {
	f.expenses[e.ID] = &e
	return nil
}

func (f *fakeGroupRepo) GetGroupExpense(_ context.Context, groupID, id string) (*core.GroupExpense, error) {
	e, ok := f.expenses[id]
	if !ok || e.GroupID != groupID {
		return nil, storage.ErrNotFound
	}
	copied := *e
	return &copied, nil
}

func (f *fakeGroupRepo) ListGroupExpenses(_ context.Context, groupID string) ([]core.GroupExpense, error) {
	var out []core.GroupExpense
	for _, e := range f.expenses {
		if e.GroupID == groupID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) ReviewGroupExpense(_ context.Context, e core.GroupExpense, a core.Approval, msg core.GroupMessage) error {
	stored, ok := f.expenses[e.ID]
	if !ok || stored.Status != core.StatusPending {
		return storage.ErrAlreadyDecided
	}
	*stored = e
	f.approvals = append(f.approvals, a)
	f.messages[msg.GroupID] = append(f.messages[msg.GroupID], msg)
	return nil
}

func (f *fakeGroupRepo) CreateMessage(_ context.Context, msg core.GroupMessage) error {
	f.messages[msg.GroupID] = append(f.messages[msg.GroupID], msg)
	return nil
}

func (f *fakeGroupRepo) ListMessages(_ context.Context, groupID string, limit int) ([]core.GroupMessage, error) {
	msgs := f.messages[groupID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (f *fakeGroupRepo) GetProfile(_ context.Context, userID string) (*core.Profile, error) {
	p, ok := f.profiles[userID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

type fakePublisher struct {
	published []*amqp.NotificationMessage
}

func (f *fakePublisher) PublishNotification(_ context.Context, msg *amqp.NotificationMessage) error {
	f.published = append(f.published, msg)
	return nil
}

func newTestGroupService(t *testing.T) (*GroupService, *fakeGroupRepo, *fakePublisher) {
	t.Helper()
	repo := newFakeGroupRepo()
	pub := &fakePublisher{}
	svc := NewGroupService(repo, pub, log.New(log.DefaultConfig()))
	svc.now = func() time.Time { return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC) }
	return svc, repo, pub
}

func createTestGroup(t *testing.T, svc *GroupService) *core.SavingsGroup {
	t.Helper()
	group, err := svc.Create(context.Background(), "admin-1", GroupInput{
		Name:       "Holiday Fund",
		GoalAmount: "1000",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return group
}

func TestGroupService_CreateMakesCreatorAdmin(t *testing.T) {
	svc, repo, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)

	member, err := repo.GetMember(context.Background(), group.ID, "admin-1")
	if err != nil {
		t.Fatalf("creator is not a member: %v", err)
	}
	if member.Role != core.RoleAdmin {
		t.Errorf("creator role = %v, want admin", member.Role)
	}
	if !group.IsActive {
		t.Error("new group should be active")
	}
}

func TestGroupService_ContributeUpdatesPool(t *testing.T) {
	svc, repo, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	_, err := svc.Contribute(ctx, "admin-1", group.ID, ContributionInput{
		Amount: "250.50",
		Date:   "2024-03-10",
	})
	if err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}

	stored, _ := repo.GetGroup(ctx, group.ID)
	if !stored.CurrentAmount.Equal(decimal.RequireFromString("250.50")) {
		t.Errorf("CurrentAmount = %s, want 250.50", stored.CurrentAmount)
	}
}

func TestGroupService_NonMemberRejected(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	if _, err := svc.Contribute(ctx, "stranger", group.ID, ContributionInput{Amount: "10", Date: "2024-03-10"}); !errors.Is(err, ErrNotMember) {
		t.Errorf("Contribute() error = %v, want ErrNotMember", err)
	}
	if _, err := svc.Get(ctx, "stranger", group.ID); !errors.Is(err, ErrNotMember) {
		t.Errorf("Get() error = %v, want ErrNotMember", err)
	}
	if _, err := svc.Messages(ctx, "stranger", group.ID, 10); !errors.Is(err, ErrNotMember) {
		t.Errorf("Messages() error = %v, want ErrNotMember", err)
	}
}

func TestGroupService_InviteAndAccept(t *testing.T) {
	svc, repo, pub := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	invitation, err := svc.Invite(ctx, "admin-1", group.ID, "Friend@Example.com")
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}
	if invitation.InvitedEmail != "friend@example.com" {
		t.Errorf("InvitedEmail = %q, want lowercased", invitation.InvitedEmail)
	}
	if invitation.Status != core.InvitationPending {
		t.Errorf("Status = %v, want pending", invitation.Status)
	}

	if len(pub.published) != 1 || pub.published[0].Event != amqp.EventInvitationCreated {
		t.Fatalf("expected one invitation.created notification, got %+v", pub.published)
	}

	// A second pending invitation for the same address is rejected.
	if _, err := svc.Invite(ctx, "admin-1", group.ID, "friend@example.com"); !errors.Is(err, storage.ErrAlreadyInvited) {
		t.Errorf("duplicate Invite() error = %v, want ErrAlreadyInvited", err)
	}

	// Accepting with the wrong e-mail fails.
	if _, err := svc.Accept(ctx, "user-2", "other@example.com", invitation.ID); !errors.Is(err, ErrNotMember) {
		t.Errorf("Accept() with wrong email error = %v, want ErrNotMember", err)
	}

	member, err := svc.Accept(ctx, "user-2", "friend@example.com", invitation.ID)
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if member.Role != core.RoleMember {
		t.Errorf("joined role = %v, want member", member.Role)
	}
	if _, err := repo.GetMember(ctx, group.ID, "user-2"); err != nil {
		t.Errorf("accepted user is not a member: %v", err)
	}

	// The invitation is closed now.
	if _, err := svc.Accept(ctx, "user-3", "friend@example.com", invitation.ID); err == nil {
		t.Error("accepting a closed invitation should fail")
	}
}

func TestGroupService_Decline(t *testing.T) {
	svc, repo, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	invitation, err := svc.Invite(ctx, "admin-1", group.ID, "friend@example.com")
	if err != nil {
		t.Fatalf("Invite() error = %v", err)
	}

	if err := svc.Decline(ctx, "friend@example.com", invitation.ID); err != nil {
		t.Fatalf("Decline() error = %v", err)
	}

	stored, _ := repo.GetInvitation(ctx, invitation.ID)
	if stored.Status != core.InvitationDeclined {
		t.Errorf("Status = %v, want declined", stored.Status)
	}
	if _, err := repo.GetMember(ctx, group.ID, "friend"); err == nil {
		t.Error("declining must not add a member")
	}
}

func TestGroupService_SubmitExpensePostsCard(t *testing.T) {
	svc, repo, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	expense, err := svc.SubmitExpense(ctx, "admin-1", group.ID, GroupExpenseInput{
		Title:    "Beach house deposit",
		Amount:   "250",
		Category: "travel",
		Date:     "2024-03-12",
	})
	if err != nil {
		t.Fatalf("SubmitExpense() error = %v", err)
	}
	if expense.Status != core.StatusPending {
		t.Errorf("Status = %v, want pending", expense.Status)
	}

	messages, _ := repo.ListMessages(ctx, group.ID, 10)
	if len(messages) != 1 || messages[0].Type != core.MessageExpense {
		t.Fatalf("expected one expense card message, got %+v", messages)
	}
}

func TestGroupService_ReviewExpense(t *testing.T) {
	svc, repo, pub := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	// user-2 joins as a plain member and submits an expense.
	invitation, _ := svc.Invite(ctx, "admin-1", group.ID, "friend@example.com")
	if _, err := svc.Accept(ctx, "user-2", "friend@example.com", invitation.ID); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	repo.profiles["user-2"] = &core.Profile{UserID: "user-2", Email: "friend@example.com"}

	expense, err := svc.SubmitExpense(ctx, "user-2", group.ID, GroupExpenseInput{
		Title:    "Beach house deposit",
		Amount:   "250",
		Category: "travel",
		Date:     "2024-03-12",
	})
	if err != nil {
		t.Fatalf("SubmitExpense() error = %v", err)
	}

	t.Run("plain member cannot review", func(t *testing.T) {
		_, err := svc.ReviewExpense(ctx, "user-2", group.ID, expense.ID, ReviewInput{Decision: "approved"})
		if !errors.Is(err, ErrNotAdmin) {
			t.Errorf("error = %v, want ErrNotAdmin", err)
		}
	})

	t.Run("invalid decision rejected", func(t *testing.T) {
		_, err := svc.ReviewExpense(ctx, "admin-1", group.ID, expense.ID, ReviewInput{Decision: "maybe"})
		if err == nil {
			t.Error("expected error for invalid decision")
		}
	})

	t.Run("admin approves", func(t *testing.T) {
		pub.published = nil

		reviewed, err := svc.ReviewExpense(ctx, "admin-1", group.ID, expense.ID, ReviewInput{Decision: "approved", Comment: "ok"})
		if err != nil {
			t.Fatalf("ReviewExpense() error = %v", err)
		}
		if reviewed.Status != core.StatusApproved || reviewed.ApprovedBy != "admin-1" {
			t.Errorf("reviewed = %+v, want approved by admin-1", reviewed)
		}
		if len(repo.approvals) != 1 || repo.approvals[0].Status != core.StatusApproved {
			t.Errorf("approval audit row missing: %+v", repo.approvals)
		}

		messages, _ := repo.ListMessages(ctx, group.ID, 10)
		last := messages[len(messages)-1]
		if last.Type != core.MessageSystem {
			t.Errorf("last message type = %v, want system", last.Type)
		}

		if len(pub.published) != 1 || pub.published[0].Event != amqp.EventExpenseReviewed {
			t.Fatalf("expected expense.reviewed notification, got %+v", pub.published)
		}
		if pub.published[0].Recipient != "friend@example.com" {
			t.Errorf("notification recipient = %q", pub.published[0].Recipient)
		}
	})

	t.Run("decision is terminal", func(t *testing.T) {
		_, err := svc.ReviewExpense(ctx, "admin-1", group.ID, expense.ID, ReviewInput{Decision: "rejected"})
		if !errors.Is(err, storage.ErrAlreadyDecided) {
			t.Errorf("second review error = %v, want ErrAlreadyDecided", err)
		}
	})
}

func TestGroupService_LedgerNetSavings(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	mustContribute := func(amount string) {
		if _, err := svc.Contribute(ctx, "admin-1", group.ID, ContributionInput{Amount: amount, Date: "2024-03-10"}); err != nil {
			t.Fatalf("Contribute() error = %v", err)
		}
	}
	mustContribute("300")
	mustContribute("200")

	approved, err := svc.SubmitExpense(ctx, "admin-1", group.ID, GroupExpenseInput{
		Title: "Deposit", Amount: "150", Category: "travel", Date: "2024-03-11",
	})
	if err != nil {
		t.Fatalf("SubmitExpense() error = %v", err)
	}
	if _, err := svc.ReviewExpense(ctx, "admin-1", group.ID, approved.ID, ReviewInput{Decision: "approved"}); err != nil {
		t.Fatalf("ReviewExpense() error = %v", err)
	}

	// A pending expense must not count against savings.
	if _, err := svc.SubmitExpense(ctx, "admin-1", group.ID, GroupExpenseInput{
		Title: "Pending thing", Amount: "999", Category: "other", Date: "2024-03-12",
	}); err != nil {
		t.Fatalf("SubmitExpense() error = %v", err)
	}

	ledger, err := svc.Ledger(ctx, "admin-1", group.ID)
	if err != nil {
		t.Fatalf("Ledger() error = %v", err)
	}
	if !ledger.SpentApproved.Equal(decimal.RequireFromString("150")) {
		t.Errorf("SpentApproved = %s, want 150", ledger.SpentApproved)
	}
	if !ledger.NetSavings.Equal(decimal.RequireFromString("350")) {
		t.Errorf("NetSavings = %s, want 350 (500 contributed - 150 approved)", ledger.NetSavings)
	}
	if len(ledger.Contributions) != 2 || len(ledger.Expenses) != 2 {
		t.Errorf("ledger rows = %d contributions, %d expenses, want 2/2", len(ledger.Contributions), len(ledger.Expenses))
	}
}

func TestGroupService_GetComputesMemberTotals(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	for _, amount := range []string{"100", "50.25"} {
		if _, err := svc.Contribute(ctx, "admin-1", group.ID, ContributionInput{
			Amount: amount, Date: "2024-03-10",
		}); err != nil {
			t.Fatalf("Contribute() error = %v", err)
		}
	}

	detail, err := svc.Get(ctx, "admin-1", group.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !detail.Contributed["admin-1"].Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("Contributed[admin-1] = %s, want 150.25", detail.Contributed["admin-1"])
	}
	if !detail.NetSavings.Equal(decimal.RequireFromString("150.25")) {
		t.Errorf("NetSavings = %s, want 150.25", detail.NetSavings)
	}
}

func TestGroupService_ContributeDefaultsDateToToday(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)

	contribution, err := svc.Contribute(context.Background(), "admin-1", group.ID, ContributionInput{
		Amount: "10",
	})
	if err != nil {
		t.Fatalf("Contribute() error = %v", err)
	}
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !contribution.Date.Equal(want) {
		t.Errorf("Date = %s, want %s", contribution.Date, want)
	}
}

func TestGroupService_ExpensesStatusFilter(t *testing.T) {
	svc, _, _ := newTestGroupService(t)
	group := createTestGroup(t, svc)
	ctx := context.Background()

	approved, err := svc.SubmitExpense(ctx, "admin-1", group.ID, GroupExpenseInput{
		Title: "Booked hotel", Amount: "150", Category: "travel", Date: "2024-03-11",
	})
	if err != nil {
		t.Fatalf("SubmitExpense() error = %v", err)
	}
	if _, err := svc.ReviewExpense(ctx, "admin-1", group.ID, approved.ID, ReviewInput{Decision: "approved"}); err != nil {
		t.Fatalf("ReviewExpense() error = %v", err)
	}
	if _, err := svc.SubmitExpense(ctx, "admin-1", group.ID, GroupExpenseInput{
		Title: "Pending thing", Amount: "20", Category: "other", Date: "2024-03-12",
	}); err != nil {
		t.Fatalf("SubmitExpense() error = %v", err)
	}

	cases := []struct {
		status core.ExpenseStatus
		want   int
	}{
		{"", 2},
		{core.StatusApproved, 1},
		{core.StatusPending, 1},
		{core.StatusRejected, 0},
	}
	for _, tc := range cases {
		got, err := svc.Expenses(ctx, "admin-1", group.ID, tc.status)
		if err != nil {
			t.Fatalf("Expenses(%q) error = %v", tc.status, err)
		}
		if len(got) != tc.want {
			t.Errorf("Expenses(%q) returned %d rows, want %d", tc.status, len(got), tc.want)
		}
	}

	if _, err := svc.Expenses(ctx, "admin-1", group.ID, "weird"); !errors.Is(err, core.ErrInvalidStatus) {
		t.Errorf("Expenses(weird) error = %v, want ErrInvalidStatus", err)
	}
}
