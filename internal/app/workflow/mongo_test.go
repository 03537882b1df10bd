package workflow_test

import (
	"testing"
	"time"

	groupstore "github.com/munawwara-care/mcadmin/internal/app/store/groups"
	modrequeststore "github.com/munawwara-care/mcadmin/internal/app/store/modrequests"
	pilgrimstore "github.com/munawwara-care/mcadmin/internal/app/store/pilgrims"
	userstore "github.com/munawwara-care/mcadmin/internal/app/store/users"
	"github.com/munawwara-care/mcadmin/internal/app/workflow"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"github.com/munawwara-care/mcadmin/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newMongoService(db *mongo.Database) *workflow.Service {
	return workflow.New(userstore.New(db), pilgrimstore.New(db), modrequeststore.New(db), groupstore.New(db), zap.NewNop())
}

func TestMongo_ApproveUpdatesStatsAndListing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newMongoService(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateUser(ctx, "Site Admin", "admin@munawwara.test", models.RoleAdmin)
	p := fx.CreatePilgrim(ctx, "Yusuf", "yusuf@munawwara.test", true)
	req := fx.CreateRequest(ctx, p.ID, models.RequestPending, time.Now().UTC())

	name, err := svc.Approve(ctx, req.ID.Hex())
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if name != "Yusuf" {
		t.Errorf("Approve name = %q, want Yusuf", name)
	}

	if _, err := svc.Approve(ctx, req.ID.Hex()); err == nil {
		t.Error("second Approve should fail")
	}

	st, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := workflow.Stats{TotalUsers: 2, Moderators: 1, Pilgrims: 1, Groups: 0, PendingModeratorRequests: 0}
	if st != want {
		t.Errorf("Stats = %+v, want %+v", st, want)
	}

	mods, err := svc.ListAccounts(ctx, models.RoleModerator)
	if err != nil {
		t.Fatalf("ListAccounts: %v", err)
	}
	if len(mods) != 1 || mods[0].ID != p.ID {
		t.Errorf("moderators = %+v, want the promoted pilgrim", mods)
	}
}

func TestMongo_ListGroupsResolvesPeople(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := newMongoService(db)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	admin := fx.CreateUser(ctx, "Site Admin", "admin@munawwara.test", models.RoleAdmin)
	mod := fx.CreateUser(ctx, "Khalid", "khalid@munawwara.test", models.RoleModerator)
	fx.CreateGroup(ctx, "Caravan 7", admin.ID, mod.ID)

	groups, err := svc.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups: %v", err)
	}
	if len(groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(groups))
	}
	g := groups[0]
	if len(g.Moderators) != 1 || g.Moderators[0].Email != "khalid@munawwara.test" {
		t.Errorf("moderators = %+v", g.Moderators)
	}
	if g.CreatedBy == nil || g.CreatedBy.FullName != "Site Admin" {
		t.Errorf("created_by = %+v", g.CreatedBy)
	}
}
