package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/munawwara-care/mcadmin/internal/app/system/apierr"
	"github.com/munawwara-care/mcadmin/internal/app/system/auth"
	"github.com/munawwara-care/mcadmin/internal/app/workflow"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"github.com/munawwara-care/mcadmin/internal/testutil/memstore"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// clock hands out strictly increasing times one second apart.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newService(t *testing.T) (*workflow.Service, *memstore.DB) {
	t.Helper()
	db := memstore.New()
	svc := workflow.New(db.Users, db.Pilgrims, db.Requests, db.Groups, zap.NewNop())
	svc.Tx = db.Tx()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	svc.Now = c.Now
	return svc, db
}

func strPtr(s string) *string { return &s }

func seedPilgrim(db *memstore.DB, name, email string, verified bool) models.Pilgrim {
	return db.PutPilgrim(models.Pilgrim{
		FullName:      name,
		Email:         email,
		PhoneNumber:   strPtr("+966500000" + name[:1]),
		NationalID:    "NID-" + name,
		Password:      "$2a$10$pilgrimhash",
		Role:          models.RolePilgrim,
		Active:        true,
		EmailVerified: verified,
	})
}

func seedRequest(db *memstore.DB, pilgrimID primitive.ObjectID, status string, created time.Time) models.ModeratorRequest {
	return db.PutRequest(models.ModeratorRequest{
		PilgrimID: pilgrimID,
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	})
}

func wantKind(t *testing.T, err error, kind apierr.Kind, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error %q, got nil", kind, msg)
	}
	if got := apierr.KindOf(err); got != kind {
		t.Fatalf("kind: got %v, want %v (err=%v)", got, kind, err)
	}
	if msg != "" && apierr.Message(err) != msg {
		t.Errorf("message: got %q, want %q", apierr.Message(err), msg)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Approve                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func TestApprove_PromotesInBothStores(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p := seedPilgrim(db, "Amina", "amina@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())

	name, err := svc.Approve(ctx, req.ID.Hex())
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if name != "Amina" {
		t.Errorf("name: got %q, want %q", name, "Amina")
	}

	u, ok := db.User(p.ID)
	if !ok {
		t.Fatal("expected a user at the pilgrim's id")
	}
	if u.Role != models.RoleModerator || !u.Active {
		t.Errorf("user: role=%q active=%v", u.Role, u.Active)
	}
	if u.Email != p.Email || u.Password != p.Password || u.Phone() != *p.PhoneNumber {
		t.Errorf("user did not copy pilgrim credentials: %+v", u)
	}

	gotP, _ := db.Pilgrim(p.ID)
	if gotP.Role != models.RoleModerator {
		t.Errorf("pilgrim role: got %q", gotP.Role)
	}
	gotR, _ := db.Request(req.ID)
	if gotR.Status != models.RequestApproved {
		t.Errorf("request status: got %q", gotR.Status)
	}

	// Read-your-writes through stats and listings.
	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if st.Moderators != 1 || st.PendingModeratorRequests != 0 {
		t.Errorf("stats: %+v", st)
	}
	mods, err := svc.ListAccounts(ctx, "moderator")
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(mods) != 1 || mods[0].ID != p.ID {
		t.Errorf("moderators: %+v", mods)
	}
	pending, _ := svc.ListPendingRequests(ctx)
	if len(pending) != 0 {
		t.Errorf("expected no pending requests, got %d", len(pending))
	}
}

func TestApprove_ExistingUserOnlyChangesRole(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p := seedPilgrim(db, "Bilal", "bilal@x.com", true)
	db.PutUser(models.User{
		ID:       p.ID,
		FullName: "Bilal (user)",
		Email:    "bilal@x.com",
		Password: "$2a$10$userhash",
		Role:     models.RolePilgrim,
		Active:   true,
	})
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())

	if _, err := svc.Approve(ctx, req.ID.Hex()); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	u, _ := db.User(p.ID)
	if u.Role != models.RoleModerator {
		t.Errorf("role: got %q", u.Role)
	}
	if u.FullName != "Bilal (user)" || u.Password != "$2a$10$userhash" {
		t.Errorf("existing user fields were overwritten: %+v", u)
	}
}

func TestApprove_AlreadyApproved_ConflictNoWrites(t *testing.T) {
	svc, db := newService(t)

	p := seedPilgrim(db, "Carim", "carim@x.com", true)
	req := seedRequest(db, p.ID, models.RequestApproved, time.Now().UTC())

	_, err := svc.Approve(context.Background(), req.ID.Hex())
	wantKind(t, err, apierr.KindConflict, "Request already approved")

	if db.Writes() != 0 {
		t.Errorf("expected no writes, got %d", db.Writes())
	}
	if _, ok := db.User(p.ID); ok {
		t.Error("no user should have been created")
	}
}

func TestApprove_AlreadyRejected_Conflict(t *testing.T) {
	svc, db := newService(t)

	p := seedPilgrim(db, "Dana", "dana@x.com", true)
	req := seedRequest(db, p.ID, models.RequestRejected, time.Now().UTC())

	_, err := svc.Approve(context.Background(), req.ID.Hex())
	wantKind(t, err, apierr.KindConflict, "Request already rejected")
	if db.Writes() != 0 {
		t.Errorf("expected no writes, got %d", db.Writes())
	}
}

func TestApprove_UnverifiedEmail_ValidationNoWrites(t *testing.T) {
	svc, db := newService(t)

	p := seedPilgrim(db, "Elif", "elif@x.com", false)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())

	_, err := svc.Approve(context.Background(), req.ID.Hex())
	wantKind(t, err, apierr.KindValidation, "Pilgrim email must be verified before approval")

	if db.Writes() != 0 {
		t.Errorf("expected no writes, got %d", db.Writes())
	}
	if _, ok := db.User(p.ID); ok {
		t.Error("no user should have been created")
	}
	gotP, _ := db.Pilgrim(p.ID)
	if gotP.Role != models.RolePilgrim {
		t.Errorf("pilgrim role changed to %q", gotP.Role)
	}
	gotR, _ := db.Request(req.ID)
	if gotR.Status != models.RequestPending {
		t.Errorf("request status changed to %q", gotR.Status)
	}
}

func TestApprove_NotFound(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	_, err := svc.Approve(ctx, primitive.NewObjectID().Hex())
	wantKind(t, err, apierr.KindNotFound, "Request not found")

	_, err = svc.Approve(ctx, "not-an-id")
	wantKind(t, err, apierr.KindNotFound, "Request not found")

	orphan := seedRequest(db, primitive.NewObjectID(), models.RequestPending, time.Now().UTC())
	_, err = svc.Approve(ctx, orphan.ID.Hex())
	wantKind(t, err, apierr.KindNotFound, "Pilgrim not found")

	if db.Writes() != 0 {
		t.Errorf("expected no writes, got %d", db.Writes())
	}
}

func TestApprove_FailureRollsBack(t *testing.T) {
	svc, db := newService(t)

	p := seedPilgrim(db, "Farah", "farah@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())
	db.FailOn("pilgrims.SetRole", errors.New("write concern timeout"))

	_, err := svc.Approve(context.Background(), req.ID.Hex())
	wantKind(t, err, apierr.KindInternal, "write concern timeout")

	gotR, _ := db.Request(req.ID)
	if gotR.Status != models.RequestPending {
		t.Errorf("request status: got %q, want pending after rollback", gotR.Status)
	}
	if _, ok := db.User(p.ID); ok {
		t.Error("user insert should have been rolled back")
	}
}

func TestApprove_ConcurrentCallsPromoteOnce(t *testing.T) {
	svc, db := newService(t)
	svc.Tx = nil // sequential writes; the conditional ledger update arbitrates

	p := seedPilgrim(db, "Hana", "hana@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Approve(context.Background(), req.ID.Hex())
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apierr.Is(err, apierr.KindConflict):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if ok != 1 {
		t.Errorf("successful approvals: got %d, want 1", ok)
	}
}

// writeConflict is what a replica set returns to the losing transaction when
// two approvals update the same request.
var writeConflict = mongo.CommandError{
	Code:    112,
	Name:    "WriteConflict",
	Message: "Caused by :: Write conflict during plan execution and yielding is disabled.",
	Labels:  []string{"TransientTransactionError"},
}

func TestApprove_TransactionWriteConflictIsConflict(t *testing.T) {
	svc, db := newService(t)

	p := seedPilgrim(db, "Iman", "iman@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())
	db.FailOn("requests.MarkApproved", writeConflict)

	_, err := svc.Approve(context.Background(), req.ID.Hex())
	wantKind(t, err, apierr.KindConflict, "Request already approved")

	if _, ok := db.User(p.ID); ok {
		t.Error("losing approval must not link a user")
	}
}

func TestHardDeleteAccount_TransactionWriteConflictIsConflict(t *testing.T) {
	svc, db := newService(t)

	u := db.PutUser(models.User{FullName: "Mod", Email: "mod@x.com", Role: models.RoleModerator})
	db.FailOn("users.Delete", writeConflict)

	err := svc.HardDeleteAccount(context.Background(), u.ID.Hex())
	wantKind(t, err, apierr.KindConflict, "Account is being modified. Please try again.")
	if apierr.HTTPStatus(err) != 400 {
		t.Errorf("status = %d, want 400", apierr.HTTPStatus(err))
	}
	if _, ok := db.User(u.ID); !ok {
		t.Error("account should still exist")
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Reject                                                                      |
*─────────────────────────────────────────────────────────────────────────────*/

func TestReject(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p := seedPilgrim(db, "Idris", "idris@x.com", true)
	created := time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)
	req := seedRequest(db, p.ID, models.RequestPending, created)

	if err := svc.Reject(ctx, req.ID.Hex()); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	first, _ := db.Request(req.ID)
	if first.Status != models.RequestRejected {
		t.Errorf("status: got %q", first.Status)
	}
	if !first.UpdatedAt.After(created) {
		t.Errorf("updated_at not stamped: %v", first.UpdatedAt)
	}
}

// Rejecting an already-rejected request succeeds again and refreshes
// updated_at. This is accepted behaviour.
func TestReject_Idempotent(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p := seedPilgrim(db, "Jamal", "jamal@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())

	if err := svc.Reject(ctx, req.ID.Hex()); err != nil {
		t.Fatalf("first Reject failed: %v", err)
	}
	first, _ := db.Request(req.ID)

	if err := svc.Reject(ctx, req.ID.Hex()); err != nil {
		t.Fatalf("second Reject failed: %v", err)
	}
	second, _ := db.Request(req.ID)

	if second.Status != models.RequestRejected {
		t.Errorf("status: got %q", second.Status)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) {
		t.Errorf("updated_at not refreshed: %v then %v", first.UpdatedAt, second.UpdatedAt)
	}
}

// Rejecting an approved request is also accepted; the promotion stands.
func TestReject_AfterApproveKeepsModerator(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p := seedPilgrim(db, "Karim", "karim@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())
	if _, err := svc.Approve(ctx, req.ID.Hex()); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if err := svc.Reject(ctx, req.ID.Hex()); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	r, _ := db.Request(req.ID)
	if r.Status != models.RequestRejected {
		t.Errorf("status: got %q", r.Status)
	}
	u, _ := db.User(p.ID)
	if u.Role != models.RoleModerator {
		t.Errorf("user role: got %q", u.Role)
	}
}

func TestReject_NotFound(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Reject(context.Background(), primitive.NewObjectID().Hex())
	wantKind(t, err, apierr.KindNotFound, "Request not found")

	err = svc.Reject(context.Background(), "zzz")
	wantKind(t, err, apierr.KindNotFound, "Request not found")
}

/*─────────────────────────────────────────────────────────────────────────────*
| Pending list                                                                |
*─────────────────────────────────────────────────────────────────────────────*/

func TestListPendingRequests_NewestFirstWithRequester(t *testing.T) {
	svc, db := newService(t)

	p1 := seedPilgrim(db, "Layla", "layla@x.com", true)
	p2 := seedPilgrim(db, "Musa", "musa@x.com", false)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	older := seedRequest(db, p1.ID, models.RequestPending, base)
	newer := seedRequest(db, p2.ID, models.RequestPending, base.Add(time.Hour))
	seedRequest(db, p1.ID, models.RequestRejected, base.Add(2*time.Hour))
	orphan := seedRequest(db, primitive.NewObjectID(), models.RequestPending, base.Add(-time.Hour))

	got, err := svc.ListPendingRequests(context.Background())
	if err != nil {
		t.Fatalf("ListPendingRequests failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID || got[2].ID != orphan.ID {
		t.Errorf("order: %v %v %v", got[0].ID, got[1].ID, got[2].ID)
	}
	if got[0].Pilgrim == nil || got[0].Pilgrim.FullName != "Musa" || got[0].Pilgrim.EmailVerified {
		t.Errorf("requester: %+v", got[0].Pilgrim)
	}
	if got[1].Pilgrim == nil || got[1].Pilgrim.NationalID != "NID-Layla" {
		t.Errorf("requester: %+v", got[1].Pilgrim)
	}
	if got[2].Pilgrim != nil {
		t.Errorf("orphan request should have no requester, got %+v", got[2].Pilgrim)
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Deletes                                                                     |
*─────────────────────────────────────────────────────────────────────────────*/

func TestHardDeleteAccount_CascadesRequests(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p := seedPilgrim(db, "Nadia", "nadia@x.com", true)
	other := seedPilgrim(db, "Omar", "omar@x.com", true)
	r1 := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())
	r2 := seedRequest(db, p.ID, models.RequestRejected, time.Now().UTC())
	keep := seedRequest(db, other.ID, models.RequestPending, time.Now().UTC())

	if err := svc.HardDeleteAccount(ctx, p.ID.Hex()); err != nil {
		t.Fatalf("HardDeleteAccount failed: %v", err)
	}

	if _, ok := db.Pilgrim(p.ID); ok {
		t.Error("pilgrim should be deleted")
	}
	for _, id := range []primitive.ObjectID{r1.ID, r2.ID} {
		if _, ok := db.Request(id); ok {
			t.Errorf("request %s should be deleted", id.Hex())
		}
	}
	if _, ok := db.Request(keep.ID); !ok {
		t.Error("unrelated request was deleted")
	}
}

func TestHardDeleteAccount_PrefersUsers(t *testing.T) {
	svc, db := newService(t)

	// A promoted moderator lives in both stores under the same id.
	p := seedPilgrim(db, "Rania", "rania@x.com", true)
	db.PutUser(models.User{ID: p.ID, Email: "rania@x.com", Role: models.RoleModerator, Active: true})
	req := seedRequest(db, p.ID, models.RequestApproved, time.Now().UTC())

	if err := svc.HardDeleteAccount(context.Background(), p.ID.Hex()); err != nil {
		t.Fatalf("HardDeleteAccount failed: %v", err)
	}
	if _, ok := db.User(p.ID); ok {
		t.Error("user should be deleted")
	}
	if _, ok := db.Pilgrim(p.ID); !ok {
		t.Error("pilgrim profile should remain when the user store held the id")
	}
	if _, ok := db.Request(req.ID); ok {
		t.Error("request should be deleted")
	}
}

func TestHardDeleteAccount_NotFound(t *testing.T) {
	svc, db := newService(t)
	id := primitive.NewObjectID()
	req := seedRequest(db, id, models.RequestPending, time.Now().UTC())

	err := svc.HardDeleteAccount(context.Background(), id.Hex())
	wantKind(t, err, apierr.KindNotFound, "User not found")

	if _, ok := db.Request(req.ID); !ok {
		t.Error("requests must not be touched when no account was deleted")
	}
}

func TestSoftDelete_DoesNotCascade(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	p := seedPilgrim(db, "Sami", "sami@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())

	if err := svc.SoftDelete(ctx, p.ID.Hex()); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	gotP, ok := db.Pilgrim(p.ID)
	if !ok || gotP.Active {
		t.Errorf("pilgrim should exist and be inactive: ok=%v %+v", ok, gotP)
	}
	gotR, ok := db.Request(req.ID)
	if !ok || gotR.Status != models.RequestPending {
		t.Errorf("request should be untouched: ok=%v %+v", ok, gotR)
	}
}

func TestSoftDelete_UsersFirst(t *testing.T) {
	svc, db := newService(t)

	p := seedPilgrim(db, "Tariq", "tariq@x.com", true)
	db.PutUser(models.User{ID: p.ID, Email: "tariq@x.com", Role: models.RoleModerator, Active: true})

	if err := svc.SoftDelete(context.Background(), p.ID.Hex()); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}
	u, _ := db.User(p.ID)
	if u.Active {
		t.Error("user should be inactive")
	}
	gotP, _ := db.Pilgrim(p.ID)
	if !gotP.Active {
		t.Error("pilgrim should stay active when the user store held the id")
	}
}

func TestSoftDelete_NotFound(t *testing.T) {
	svc, _ := newService(t)
	err := svc.SoftDelete(context.Background(), primitive.NewObjectID().Hex())
	wantKind(t, err, apierr.KindNotFound, "User not found")
}

func TestHardDeleteGroup(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	member := seedPilgrim(db, "Umar", "umar@x.com", true)
	g := db.PutGroup(models.Group{Name: "Bus 4", PilgrimIDs: []primitive.ObjectID{member.ID}})

	if err := svc.HardDeleteGroup(ctx, g.ID.Hex()); err != nil {
		t.Fatalf("HardDeleteGroup failed: %v", err)
	}
	if _, ok := db.Group(g.ID); ok {
		t.Error("group should be deleted")
	}
	if _, ok := db.Pilgrim(member.ID); !ok {
		t.Error("members must not be deleted with the group")
	}

	err := svc.HardDeleteGroup(ctx, g.ID.Hex())
	wantKind(t, err, apierr.KindNotFound, "Group not found")
}

/*─────────────────────────────────────────────────────────────────────────────*
| CreateModerator                                                             |
*─────────────────────────────────────────────────────────────────────────────*/

func TestCreateModerator(t *testing.T) {
	svc, db := newService(t)

	u, err := svc.CreateModerator(context.Background(), workflow.NewModerator{
		FullName:    "  Yusuf   Ali ",
		Email:       "Yusuf@X.com",
		Password:    "pw123",
		PhoneNumber: "+1 555 0100",
	})
	if err != nil {
		t.Fatalf("CreateModerator failed: %v", err)
	}
	if u.Role != models.RoleModerator || !u.Active {
		t.Errorf("role=%q active=%v", u.Role, u.Active)
	}
	if u.Email != "yusuf@x.com" || u.Phone() != "+15550100" || u.FullName != "Yusuf Ali" {
		t.Errorf("normalization: %+v", u)
	}
	stored, _ := db.User(u.ID)
	if err := bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("pw123")); err != nil {
		t.Errorf("stored password does not verify: %v", err)
	}
	if cost, _ := bcrypt.Cost([]byte(stored.Password)); cost != bcrypt.DefaultCost {
		t.Errorf("bcrypt cost: got %d, want %d", cost, bcrypt.DefaultCost)
	}
}

func TestCreateModerator_Validation(t *testing.T) {
	svc, db := newService(t)
	db.PutUser(models.User{Email: "taken@x.com", PhoneNumber: strPtr("+1555"), Role: models.RoleAdmin, Active: true})

	tests := []struct {
		name string
		in   workflow.NewModerator
		msg  string
	}{
		{"missing email", workflow.NewModerator{Password: "pw", PhoneNumber: "+1"}, "Missing required fields"},
		{"missing password", workflow.NewModerator{Email: "a@x.com", PhoneNumber: "+1"}, "Missing required fields"},
		{"missing phone", workflow.NewModerator{Email: "a@x.com", Password: "pw"}, "Missing required fields"},
		{"duplicate email", workflow.NewModerator{Email: "TAKEN@x.com", Password: "pw", PhoneNumber: "+1999"}, "Email already registered"},
		{"duplicate phone", workflow.NewModerator{Email: "new@x.com", Password: "pw", PhoneNumber: "+1 555"}, "Phone number already registered"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateModerator(context.Background(), tt.in)
			wantKind(t, err, apierr.KindValidation, tt.msg)
		})
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Listings & stats                                                            |
*─────────────────────────────────────────────────────────────────────────────*/

func TestListAccounts(t *testing.T) {
	svc, db := newService(t)
	ctx := context.Background()

	db.PutUser(models.User{Email: "admin@x.com", Password: "h", Role: models.RoleAdmin, Active: true})
	db.PutUser(models.User{Email: "mod@x.com", Password: "h", Role: models.RoleModerator, Active: true})
	seedPilgrim(db, "Zaid", "zaid@x.com", true)
	seedPilgrim(db, "Zara", "zara@x.com", false)

	tests := []struct {
		role string
		want int
	}{
		{"", 4},
		{"pilgrim", 2},
		{"moderator", 1},
		{"admin", 1},
		{" Admin ", 1},
	}
	for _, tt := range tests {
		t.Run("role="+tt.role, func(t *testing.T) {
			got, err := svc.ListAccounts(ctx, tt.role)
			if err != nil {
				t.Fatalf("ListAccounts failed: %v", err)
			}
			if len(got) != tt.want {
				t.Errorf("count: got %d, want %d", len(got), tt.want)
			}
		})
	}

	all, _ := svc.ListAccounts(ctx, "")
	if all[0].Source != workflow.SourceUsers || all[3].Source != workflow.SourcePilgrims {
		t.Errorf("users should precede pilgrims: %+v", all)
	}
	if all[3].EmailVerified == nil {
		t.Error("pilgrim accounts should report email_verified")
	}
}

func TestListAccounts_BogusRoleTouchesNoStore(t *testing.T) {
	for _, role := range []string{"bogus", " ", "Moderator", "ADMIN", " pilgrim"} {
		t.Run(role, func(t *testing.T) {
			svc, db := newService(t)

			_, err := svc.ListAccounts(context.Background(), role)
			wantKind(t, err, apierr.KindValidation, "Invalid role. Use: pilgrim, moderator, or admin")

			if db.Calls() != 0 {
				t.Errorf("expected no store calls, got %d", db.Calls())
			}
		})
	}
}

func TestListGroups_ResolvesPeople(t *testing.T) {
	svc, db := newService(t)

	mod := db.PutUser(models.User{FullName: "Mod One", Email: "m1@x.com", Role: models.RoleModerator})
	creator := db.PutUser(models.User{FullName: "Creator", Email: "c@x.com", Role: models.RoleModerator})
	ghost := primitive.NewObjectID()
	db.PutGroup(models.Group{
		Name:         "Caravan A",
		ModeratorIDs: []primitive.ObjectID{mod.ID, ghost},
		CreatedBy:    creator.ID,
	})
	db.PutGroup(models.Group{Name: "Caravan B", CreatedBy: ghost})

	got, err := svc.ListGroups(context.Background())
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	byName := map[string]workflow.GroupView{}
	for _, g := range got {
		byName[g.Name] = g
	}

	a := byName["Caravan A"]
	if len(a.Moderators) != 1 || a.Moderators[0].Email != "m1@x.com" {
		t.Errorf("moderators: %+v", a.Moderators)
	}
	if a.CreatedBy == nil || a.CreatedBy.FullName != "Creator" {
		t.Errorf("creator: %+v", a.CreatedBy)
	}
	b := byName["Caravan B"]
	if b.CreatedBy != nil {
		t.Errorf("unresolvable creator should be nil, got %+v", b.CreatedBy)
	}
	if b.Moderators == nil || b.PilgrimIDs == nil {
		t.Error("empty lists should be non-nil")
	}
}

func TestStats(t *testing.T) {
	svc, db := newService(t)

	db.PutUser(models.User{Email: "a@x.com", Role: models.RoleAdmin})
	db.PutUser(models.User{Email: "m@x.com", Role: models.RoleModerator})
	db.PutUser(models.User{Email: "m2@x.com", Role: models.RoleModerator})
	p := seedPilgrim(db, "Walid", "walid@x.com", true)
	seedPilgrim(db, "Widad", "widad@x.com", true)
	seedPilgrim(db, "Wafa", "wafa@x.com", true)
	seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())
	seedRequest(db, p.ID, models.RequestRejected, time.Now().UTC())
	db.PutGroup(models.Group{Name: "G"})

	st, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	want := workflow.Stats{TotalUsers: 3, Moderators: 2, Pilgrims: 3, Groups: 1, PendingModeratorRequests: 1}
	if st != want {
		t.Errorf("stats: got %+v, want %+v", st, want)
	}
}

func TestStats_StoreFailureIsInternal(t *testing.T) {
	svc, db := newService(t)
	db.FailOn("groups.Count", errors.New("socket closed"))

	_, err := svc.Stats(context.Background())
	wantKind(t, err, apierr.KindInternal, "socket closed")
}

/*─────────────────────────────────────────────────────────────────────────────*
| Audit                                                                       |
*─────────────────────────────────────────────────────────────────────────────*/

type auditCall struct {
	event string
	actor primitive.ObjectID
}

type fakeAudit struct {
	mu    sync.Mutex
	calls []auditCall
}

func (f *fakeAudit) add(event string, actor primitive.ObjectID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, auditCall{event, actor})
}

func (f *fakeAudit) ModeratorCreated(_ context.Context, actor, _ primitive.ObjectID, _ string) {
	f.add("moderator_created", actor)
}
func (f *fakeAudit) ModeratorRequestApproved(_ context.Context, actor, _, _ primitive.ObjectID) {
	f.add("approved", actor)
}
func (f *fakeAudit) ModeratorRequestRejected(_ context.Context, actor, _ primitive.ObjectID) {
	f.add("rejected", actor)
}
func (f *fakeAudit) AccountDeactivated(_ context.Context, actor, _ primitive.ObjectID, _ string) {
	f.add("deactivated", actor)
}
func (f *fakeAudit) AccountDeleted(_ context.Context, actor, _ primitive.ObjectID, _ string, _ int64) {
	f.add("deleted", actor)
}
func (f *fakeAudit) GroupDeleted(_ context.Context, actor, _ primitive.ObjectID) {
	f.add("group_deleted", actor)
}

func TestAudit_RecordsActingAdmin(t *testing.T) {
	svc, db := newService(t)
	sink := &fakeAudit{}
	svc.Audit = sink

	admin := primitive.NewObjectID()
	r := auth.WithTestUser(newRequest(), &auth.Principal{ID: admin.Hex(), Role: models.RoleAdmin})
	ctx := r.Context()

	p := seedPilgrim(db, "Xena", "xena@x.com", true)
	req := seedRequest(db, p.ID, models.RequestPending, time.Now().UTC())
	if _, err := svc.Approve(ctx, req.ID.Hex()); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	// Failed operations are not audited.
	_ = svc.HardDeleteGroup(ctx, primitive.NewObjectID().Hex())

	if len(sink.calls) != 1 {
		t.Fatalf("expected 1 audit call, got %d", len(sink.calls))
	}
	if sink.calls[0].event != "approved" || sink.calls[0].actor != admin {
		t.Errorf("audit call: %+v", sink.calls[0])
	}
}
