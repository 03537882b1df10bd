package modrequeststore_test

import (
	"errors"
	"testing"
	"time"

	modrequeststore "github.com/munawwara-care/mcadmin/internal/app/store/modrequests"
	"github.com/munawwara-care/mcadmin/internal/domain/models"
	"github.com/munawwara-care/mcadmin/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := modrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	req, err := store.Create(ctx, pid)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if req.Status != models.RequestPending {
		t.Errorf("status: got %q", req.Status)
	}

	got, err := store.GetByID(ctx, req.ID)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.PilgrimID != pid {
		t.Errorf("pilgrim_id: got %s", got.PilgrimID.Hex())
	}

	_, err = store.GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, mongo.ErrNoDocuments) {
		t.Errorf("expected mongo.ErrNoDocuments, got %v", err)
	}
}

func TestStore_ListPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	store := modrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p1 := fx.CreatePilgrim(ctx, "Ehsan", "ehsan@example.com", true)
	p2 := fx.CreatePilgrim(ctx, "Fatima", "fatima@example.com", false)
	base := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)

	older := fx.CreateRequest(ctx, p1.ID, models.RequestPending, base)
	newer := fx.CreateRequest(ctx, p2.ID, models.RequestPending, base.Add(time.Hour))
	fx.CreateRequest(ctx, p1.ID, models.RequestApproved, base.Add(2*time.Hour))
	orphan := fx.CreateRequest(ctx, primitive.NewObjectID(), models.RequestPending, base.Add(-time.Hour))

	got, err := store.ListPending(ctx)
	if err != nil {
		t.Fatalf("ListPending failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 pending, got %d", len(got))
	}
	if got[0].ID != newer.ID || got[1].ID != older.ID || got[2].ID != orphan.ID {
		t.Error("expected newest first")
	}
	if got[0].Pilgrim == nil || got[0].Pilgrim.FullName != "Fatima" || got[0].Pilgrim.EmailVerified {
		t.Errorf("joined requester: %+v", got[0].Pilgrim)
	}
	if got[1].Pilgrim == nil || got[1].Pilgrim.NationalID != "NID-Ehsan" || !got[1].Pilgrim.EmailVerified {
		t.Errorf("joined requester: %+v", got[1].Pilgrim)
	}
	if got[2].Pilgrim != nil {
		t.Errorf("orphan should have no requester, got %+v", got[2].Pilgrim)
	}
}

func TestStore_MarkApproved_OnlyFromPending(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := modrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req, err := store.Create(ctx, primitive.NewObjectID())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	ok, err := store.MarkApproved(ctx, req.ID, time.Now().UTC())
	if err != nil || !ok {
		t.Fatalf("first MarkApproved: ok=%v err=%v", ok, err)
	}
	ok, err = store.MarkApproved(ctx, req.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("second MarkApproved failed: %v", err)
	}
	if ok {
		t.Error("second approval must not apply")
	}

	got, _ := store.GetByID(ctx, req.ID)
	if got.Status != models.RequestApproved {
		t.Errorf("status: got %q", got.Status)
	}
}

func TestStore_MarkRejected_Permissive(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := modrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	req, _ := store.Create(ctx, primitive.NewObjectID())
	first := time.Now().UTC().Truncate(time.Millisecond)
	second := first.Add(time.Minute)

	if n, err := store.MarkRejected(ctx, req.ID, first); err != nil || n != 1 {
		t.Fatalf("MarkRejected: n=%d err=%v", n, err)
	}
	if n, err := store.MarkRejected(ctx, req.ID, second); err != nil || n != 1 {
		t.Fatalf("repeat MarkRejected: n=%d err=%v", n, err)
	}
	got, _ := store.GetByID(ctx, req.ID)
	if got.Status != models.RequestRejected || !got.UpdatedAt.Equal(second) {
		t.Errorf("status=%q updated_at=%v", got.Status, got.UpdatedAt)
	}

	if n, _ := store.MarkRejected(ctx, primitive.NewObjectID(), second); n != 0 {
		t.Errorf("MarkRejected on unknown id matched %d", n)
	}
}

func TestStore_DeleteByPilgrimAndCount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := modrequeststore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	pid := primitive.NewObjectID()
	other := primitive.NewObjectID()
	for i := 0; i < 2; i++ {
		if _, err := store.Create(ctx, pid); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := store.Create(ctx, other); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if n, _ := store.CountPending(ctx); n != 3 {
		t.Errorf("CountPending: got %d", n)
	}
	n, err := store.DeleteByPilgrim(ctx, pid)
	if err != nil || n != 2 {
		t.Fatalf("DeleteByPilgrim: n=%d err=%v", n, err)
	}
	if n, _ := store.CountPending(ctx); n != 1 {
		t.Errorf("CountPending after delete: got %d", n)
	}
}
