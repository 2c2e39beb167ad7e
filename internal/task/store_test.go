package task

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"gorm.io/gorm"

	"github.com/yourusername/task-forge/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := storage.ConnectSQLite(dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := storage.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return NewStore(db), db
}

func createTestUser(t *testing.T, db *gorm.DB, username string) uint {
	t.Helper()

	user := storage.User{Username: username, HashedPassword: "irrelevant"}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %q: %v", username, err)
	}
	return user.ID
}

func TestCreateManyBindsOwner(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	tasks, err := store.CreateMany(context.Background(), alice, []TaskCreate{
		{Title: "buy milk"},
		{Title: "walk the dog", Description: "around the block", Done: true},
	})
	if err != nil {
		t.Fatalf("CreateMany returned error: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("created %d tasks, want 2", len(tasks))
	}

	for _, task := range tasks {
		if task.ID == 0 {
			t.Fatal("expected assigned id on created task")
		}
		if task.UserID != alice {
			t.Fatalf("task owner = %d, want %d", task.UserID, alice)
		}
		if task.Deleted {
			t.Fatal("new task must not be deleted")
		}
	}
	if tasks[0].Done {
		t.Fatal("done must default to false")
	}
	if !tasks[1].Done {
		t.Fatal("explicit done=true was not persisted")
	}
}

func TestCreateManyEmptyInput(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	tasks, err := store.CreateMany(context.Background(), alice, nil)
	if err != nil {
		t.Fatalf("CreateMany returned error: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("created %d tasks, want 0", len(tasks))
	}
}

func TestCreateManyRejectsEmptyTitle(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	_, err := store.CreateMany(context.Background(), alice, []TaskCreate{
		{Title: "ok"},
		{Title: "   "},
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestListPaginationWindows(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	inputs := make([]TaskCreate, 5)
	for i := range inputs {
		inputs[i] = TaskCreate{Title: fmt.Sprintf("task-%d", i)}
	}
	if _, err := store.CreateMany(context.Background(), alice, inputs); err != nil {
		t.Fatalf("CreateMany returned error: %v", err)
	}

	total, items, err := store.List(context.Background(), alice, 0, 5, nil)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 5 || len(items) != 5 {
		t.Fatalf("total = %d, items = %d, want 5/5", total, len(items))
	}
	// ID昇順の安定した並びであること
	for i := 1; i < len(items); i++ {
		if items[i-1].ID >= items[i].ID {
			t.Fatalf("items not ordered by id: %v before %v", items[i-1].ID, items[i].ID)
		}
	}

	// ページ窓が総件数を超えた場合も total は変わらない
	total, items, err = store.List(context.Background(), alice, 5, 10, nil)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 5 || len(items) != 0 {
		t.Fatalf("total = %d, items = %d, want 5/0", total, len(items))
	}

	// limit=0 は件数だけを返す
	total, items, err = store.List(context.Background(), alice, 0, 0, nil)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 5 || len(items) != 0 {
		t.Fatalf("total = %d, items = %d, want 5/0", total, len(items))
	}

	// 途中からのページ窓
	total, items, err = store.List(context.Background(), alice, 2, 2, nil)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 5 || len(items) != 2 {
		t.Fatalf("total = %d, items = %d, want 5/2", total, len(items))
	}
}

func TestListRejectsNegativeBounds(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	if _, _, err := store.List(context.Background(), alice, -1, 10, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative skip, got %v", err)
	}
	if _, _, err := store.List(context.Background(), alice, 0, -1, nil); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for negative limit, got %v", err)
	}
}

func TestListDoneFilter(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	if _, err := store.CreateMany(context.Background(), alice, []TaskCreate{
		{Title: "open-1"},
		{Title: "open-2"},
		{Title: "closed-1", Done: true},
	}); err != nil {
		t.Fatalf("CreateMany returned error: %v", err)
	}

	isDone := true
	total, items, err := store.List(context.Background(), alice, 0, 10, &isDone)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("done=true: total = %d, items = %d, want 1/1", total, len(items))
	}
	if !items[0].Done {
		t.Fatal("done=true filter returned an unfinished task")
	}

	notDone := false
	total, items, err = store.List(context.Background(), alice, 0, 10, &notDone)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("done=false: total = %d, items = %d, want 2/2", total, len(items))
	}

	// フィルタなしは両方を返す
	total, items, err = store.List(context.Background(), alice, 0, 10, nil)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 3 || len(items) != 3 {
		t.Fatalf("no filter: total = %d, items = %d, want 3/3", total, len(items))
	}
}

func TestOwnershipIsolation(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")

	tasks, err := store.CreateMany(context.Background(), alice, []TaskCreate{{Title: "secret"}})
	if err != nil {
		t.Fatalf("CreateMany returned error: %v", err)
	}
	taskID := tasks[0].ID

	// 他人のタスクは存在しないタスクと区別がつかないこと
	if _, err := store.Get(context.Background(), bob, taskID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get as bob: expected ErrNotFound, got %v", err)
	}
	done := true
	if _, err := store.Update(context.Background(), bob, taskID, TaskUpdate{Done: &done}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Update as bob: expected ErrNotFound, got %v", err)
	}
	if err := store.SoftDelete(context.Background(), bob, taskID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("SoftDelete as bob: expected ErrNotFound, got %v", err)
	}

	// 本人からは見えること・bobの一覧には出ないこと
	if _, err := store.Get(context.Background(), alice, taskID); err != nil {
		t.Fatalf("Get as alice returned error: %v", err)
	}
	total, _, err := store.List(context.Background(), bob, 0, 10, nil)
	if err != nil {
		t.Fatalf("List as bob returned error: %v", err)
	}
	if total != 0 {
		t.Fatalf("bob's total = %d, want 0", total)
	}
}

func TestUpdatePatchesOnlyProvidedFields(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	tasks, err := store.CreateMany(context.Background(), alice, []TaskCreate{
		{Title: "buy milk", Description: "2 liters"},
	})
	if err != nil {
		t.Fatalf("CreateMany returned error: %v", err)
	}
	taskID := tasks[0].ID

	// done だけを更新し description は保持されること
	done := true
	updated, err := store.Update(context.Background(), alice, taskID, TaskUpdate{Done: &done})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if !updated.Done {
		t.Fatal("done was not updated")
	}
	if updated.Description != "2 liters" {
		t.Fatalf("description changed unexpectedly: %q", updated.Description)
	}

	// description だけを更新し done は保持されること
	desc := "3 liters"
	updated, err = store.Update(context.Background(), alice, taskID, TaskUpdate{Description: &desc})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if updated.Description != "3 liters" {
		t.Fatalf("description = %q, want 3 liters", updated.Description)
	}
	if !updated.Done {
		t.Fatal("done changed unexpectedly")
	}
}

func TestSoftDeleteHidesTask(t *testing.T) {
	store, db := newTestStore(t)
	alice := createTestUser(t, db, "alice")

	tasks, err := store.CreateMany(context.Background(), alice, []TaskCreate{{Title: "temp"}})
	if err != nil {
		t.Fatalf("CreateMany returned error: %v", err)
	}
	taskID := tasks[0].ID

	if err := store.SoftDelete(context.Background(), alice, taskID); err != nil {
		t.Fatalf("SoftDelete returned error: %v", err)
	}

	// 削除後はあらゆる読み取り・更新経路から見えないこと
	if _, err := store.Get(context.Background(), alice, taskID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete: expected ErrNotFound, got %v", err)
	}
	total, items, err := store.List(context.Background(), alice, 0, 10, nil)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Fatalf("deleted task still listed: total = %d, items = %d", total, len(items))
	}
	if err := store.SoftDelete(context.Background(), alice, taskID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second SoftDelete: expected ErrNotFound, got %v", err)
	}

	// レコード自体は物理削除されず残っていること
	var row storage.Task
	if err := db.Where("id = ?", taskID).First(&row).Error; err != nil {
		t.Fatalf("raw row lookup failed: %v", err)
	}
	if !row.Deleted {
		t.Fatal("deleted flag was not persisted")
	}
}
