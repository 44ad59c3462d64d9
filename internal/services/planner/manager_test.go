package planner

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/benvon/calendar-todo/internal/apperr"
	"github.com/benvon/calendar-todo/internal/database"
	"github.com/benvon/calendar-todo/internal/models"
	"github.com/benvon/calendar-todo/internal/queue"
)

func TestAddTask_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input TaskInput
	}{
		{name: "empty title", input: TaskInput{Title: ""}},
		{name: "whitespace title", input: TaskInput{Title: "   \t"}},
		{name: "month out of range", input: TaskInput{Title: "x", Deadline: "2024-13-01"}},
		{name: "non-ISO deadline", input: TaskInput{Title: "x", Deadline: "06/01/2024"}},
		{name: "impossible day", input: TaskInput{Title: "x", Deadline: "2024-02-30"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			kv := newFlakyKV()
			m := openManager(t, kv)

			_, err := m.AddTask(context.Background(), tt.input)
			if !apperr.IsValidation(err) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			if writes := kv.writeLog(); len(writes) != 0 {
				t.Errorf("Expected no writes, got %v", writes)
			}
			tasks, _ := m.ListTasks()
			if len(tasks) != 0 {
				t.Errorf("Expected no tasks, got %d", len(tasks))
			}
		})
	}
}

func TestAddTask_Fields(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 30, 8, 15, 0, 123_000_000, time.UTC)
	m := openManager(t, database.NewMemoryStore(), WithClock(func() time.Time { return now }))

	task, err := m.AddTask(context.Background(), TaskInput{
		Title:       "  Buy milk ",
		Description: "two litres",
		Deadline:    "2024-06-01",
	})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	want := models.Task{
		ID:          now.UnixMilli(),
		Title:       "Buy milk",
		Description: "two litres",
		Status:      models.TaskStatusPending,
		CreatedAt:   "2024-05-30T08:15:00.123Z",
		Deadline:    "2024-06-01",
	}
	if task != want {
		t.Errorf("AddTask() = %+v, want %+v", task, want)
	}
}

func TestAddTask_UniqueIDs(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore(), WithClock(fixedClock(1_000)))
	ctx := context.Background()

	seen := make(map[int64]bool)
	var last int64
	for i := 0; i < 20; i++ {
		task, err := m.AddTask(ctx, TaskInput{Title: fmt.Sprintf("task %d", i)})
		if err != nil {
			t.Fatalf("AddTask() error = %v", err)
		}
		if seen[task.ID] {
			t.Fatalf("Duplicate id %d", task.ID)
		}
		if task.ID <= last {
			t.Errorf("Expected increasing ids, got %d after %d", task.ID, last)
		}
		seen[task.ID] = true
		last = task.ID
	}
}

func TestAddTask_IDsSurviveReopen(t *testing.T) {
	t.Parallel()

	kv := database.NewMemoryStore()
	ctx := context.Background()

	first := openManager(t, kv, WithClock(fixedClock(5_000)))
	a, err := first.AddTask(ctx, TaskInput{Title: "a"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	// A clock that went backwards must not reuse an id
	second := openManager(t, kv, WithClock(fixedClock(10)))
	b, err := second.AddTask(ctx, TaskInput{Title: "b"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if b.ID <= a.ID {
		t.Errorf("Expected id greater than %d, got %d", a.ID, b.ID)
	}
}

func TestAddTask_Concurrent(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore(), WithClock(fixedClock(42)))
	ctx := context.Background()

	const n = 50
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			task, err := m.AddTask(ctx, TaskInput{Title: fmt.Sprintf("task %d", i), Deadline: "2024-06-01"})
			if err != nil {
				t.Errorf("AddTask() error = %v", err)
				return
			}
			ids <- task.ID
		}(i)
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		if seen[id] {
			t.Errorf("Duplicate id %d", id)
		}
		seen[id] = true
	}

	tasks, err := m.ListTasks()
	if err != nil {
		t.Fatalf("ListTasks() error = %v", err)
	}
	if len(tasks) != n {
		t.Errorf("Expected %d tasks, got %d", n, len(tasks))
	}
	if got := len(m.TasksOnDate("2024-06-01")); got != n {
		t.Errorf("Expected %d tasks on date, got %d", n, got)
	}
}

func TestSetTaskDeadline_SingleBucket(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore())
	ctx := context.Background()

	task, err := m.AddTask(ctx, TaskInput{Title: "report", Deadline: "2024-06-01"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	for _, date := range []string{"2024-06-03", "2024-06-02", "2024-06-03"} {
		if err := m.SetTaskDeadline(ctx, task.ID, date); err != nil {
			t.Fatalf("SetTaskDeadline(%s) error = %v", date, err)
		}
		got, ok := m.DeadlineFor(task.ID)
		if !ok || got != date {
			t.Errorf("DeadlineFor() = %q, %v; want %q", got, ok, date)
		}
		if n := m.DeadlineIndex().Buckets(task.ID); n != 1 {
			t.Errorf("Expected id in exactly one bucket, found %d", n)
		}
		assertNoEmptyBuckets(t, m)
	}
}

func TestSetTaskDeadline_Errors(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore())
	ctx := context.Background()
	task, err := m.AddTask(ctx, TaskInput{Title: "x"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	if err := m.SetTaskDeadline(ctx, task.ID, "2024-6-1"); !apperr.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
	if err := m.SetTaskDeadline(ctx, task.ID+1, "2024-06-01"); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
	if len(m.DeadlineIndex()) != 0 {
		t.Errorf("Expected empty index, got %v", m.DeadlineIndex())
	}
}

func TestRemoveTaskDeadline(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	m := openManager(t, kv, WithClock(fixedClock(1)))
	ctx := context.Background()

	a, _ := m.AddTask(ctx, TaskInput{Title: "a", Deadline: "2024-06-01"})
	b, _ := m.AddTask(ctx, TaskInput{Title: "b", Deadline: "2024-06-01"})

	if err := m.RemoveTaskDeadline(ctx, a.ID); err != nil {
		t.Fatalf("RemoveTaskDeadline() error = %v", err)
	}
	if _, ok := m.DeadlineFor(a.ID); ok {
		t.Error("Expected deadline to be removed")
	}
	if got := m.DeadlineIndex()["2024-06-01"]; !reflect.DeepEqual(got, []int64{b.ID}) {
		t.Errorf("Expected bucket [%d], got %v", b.ID, got)
	}

	if err := m.RemoveTaskDeadline(ctx, b.ID); err != nil {
		t.Fatalf("RemoveTaskDeadline() error = %v", err)
	}
	if _, ok := m.DeadlineIndex()["2024-06-01"]; ok {
		t.Error("Expected empty bucket to be dropped")
	}

	// Nothing to purge means nothing to write
	kv.resetWrites()
	if err := m.RemoveTaskDeadline(ctx, b.ID); err != nil {
		t.Fatalf("RemoveTaskDeadline() error = %v", err)
	}
	if writes := kv.writeLog(); len(writes) != 0 {
		t.Errorf("Expected no writes, got %v", writes)
	}
}

func TestDeleteTask_PurgesIndex(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore())
	ctx := context.Background()

	task, _ := m.AddTask(ctx, TaskInput{Title: "gone", Deadline: "2024-06-01"})
	if err := m.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}

	if _, err := m.GetTask(task.ID); !apperr.IsNotFound(err) {
		t.Errorf("Expected task to be gone, got %v", err)
	}
	if n := m.DeadlineIndex().Buckets(task.ID); n != 0 {
		t.Errorf("Expected id in no bucket, found %d", n)
	}
	for _, got := range m.TasksOnDate("2024-06-01") {
		if got.ID == task.ID {
			t.Error("TasksOnDate returned a deleted task")
		}
	}
	if err := m.DeleteTask(ctx, task.ID); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found on second delete, got %v", err)
	}
}

func TestCompleteTask_Idempotent(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	pub := &recordingPublisher{}
	m := openManager(t, kv, WithPublisher(pub))
	ctx := context.Background()

	task, _ := m.AddTask(ctx, TaskInput{Title: "once"})
	kv.resetWrites()

	if err := m.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	once, _ := m.ListTasks()

	if err := m.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}
	twice, _ := m.ListTasks()

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Expected identical state, got %+v and %+v", once, twice)
	}
	if twice[0].Status != models.TaskStatusCompleted {
		t.Errorf("Expected Completed, got %s", twice[0].Status)
	}
	if writes := kv.writeLog(); !reflect.DeepEqual(writes, []string{database.KeyTasks}) {
		t.Errorf("Expected a single tasks write, got %v", writes)
	}

	completed := 0
	for _, typ := range pub.types() {
		if typ == queue.EventTaskCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("Expected one completion event, got %d", completed)
	}

	if err := m.CompleteTask(ctx, task.ID+1); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
}

func TestUpdateTask(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore())
	ctx := context.Background()

	task, _ := m.AddTask(ctx, TaskInput{Title: "draft", Deadline: "2024-06-01"})
	if err := m.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}

	updated, err := m.UpdateTask(ctx, task.ID, TaskInput{
		Title:       "final",
		Description: "edited",
		Deadline:    "2024-06-05",
	})
	if err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if updated.Title != "final" || updated.Description != "edited" || updated.Deadline != "2024-06-05" {
		t.Errorf("Unexpected update result: %+v", updated)
	}
	if updated.Status != models.TaskStatusCompleted {
		t.Errorf("Expected status to be untouched, got %s", updated.Status)
	}
	if updated.CreatedAt != task.CreatedAt {
		t.Errorf("Expected created_at to be untouched")
	}
	if _, ok := m.DeadlineIndex()["2024-06-01"]; ok {
		t.Error("Expected old bucket to be dropped")
	}

	if _, err := m.UpdateTask(ctx, task.ID+1, TaskInput{Title: "x"}); !apperr.IsNotFound(err) {
		t.Errorf("Expected not found error, got %v", err)
	}
	if _, err := m.UpdateTask(ctx, task.ID, TaskInput{Title: ""}); !apperr.IsValidation(err) {
		t.Errorf("Expected validation error, got %v", err)
	}
}

func TestScenario_UpdateClearsDeadline(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore())
	ctx := context.Background()

	task, err := m.AddTask(ctx, TaskInput{Title: "Buy milk", Deadline: "2024-06-01"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}

	onDate := m.TasksOnDate("2024-06-01")
	if len(onDate) != 1 || onDate[0].Title != "Buy milk" {
		t.Fatalf("Expected exactly Buy milk on 2024-06-01, got %+v", onDate)
	}

	if _, err := m.UpdateTask(ctx, task.ID, TaskInput{Title: "Buy milk"}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if got := m.TasksOnDate("2024-06-01"); len(got) != 0 {
		t.Errorf("Expected no tasks on 2024-06-01, got %+v", got)
	}
	if _, ok := m.DeadlineIndex()["2024-06-01"]; ok {
		t.Error("Expected bucket 2024-06-01 to be gone")
	}
}

func TestScenario_DeleteFromSharedBucket(t *testing.T) {
	t.Parallel()

	m := openManager(t, database.NewMemoryStore(), WithClock(fixedClock(1)))
	ctx := context.Background()

	first, _ := m.AddTask(ctx, TaskInput{Title: "one", Deadline: "2024-06-01"})
	second, _ := m.AddTask(ctx, TaskInput{Title: "two", Deadline: "2024-06-01"})
	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("Expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}

	if err := m.DeleteTask(ctx, 1); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if got := m.DeadlineIndex()["2024-06-01"]; !reflect.DeepEqual(got, []int64{2}) {
		t.Errorf("Expected bucket [2], got %v", got)
	}
}

func TestPersistence_Reopen(t *testing.T) {
	t.Parallel()

	kv := database.NewMemoryStore()
	ctx := context.Background()

	m := openManager(t, kv)
	task, _ := m.AddTask(ctx, TaskInput{Title: "persist me", Deadline: "2024-06-01"})
	if err := m.CompleteTask(ctx, task.ID); err != nil {
		t.Fatalf("CompleteTask() error = %v", err)
	}

	reopened := openManager(t, kv)
	got, err := reopened.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask() error = %v", err)
	}
	if got.Title != "persist me" || got.Status != models.TaskStatusCompleted || got.Deadline != "2024-06-01" {
		t.Errorf("Unexpected reloaded task: %+v", got)
	}
}

func TestWriteOrdering_WithoutBatch(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	m := openManager(t, kv)
	ctx := context.Background()

	task, err := m.AddTask(ctx, TaskInput{Title: "ordered", Deadline: "2024-06-01"})
	if err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if got := kv.writeLog(); !reflect.DeepEqual(got, []string{database.KeyTasks, database.KeyDeadlines}) {
		t.Errorf("Add wrote %v, want tasks then deadlines", got)
	}

	kv.resetWrites()
	if _, err := m.UpdateTask(ctx, task.ID, TaskInput{Title: "ordered", Deadline: "2024-06-02"}); err != nil {
		t.Fatalf("UpdateTask() error = %v", err)
	}
	if got := kv.writeLog(); !reflect.DeepEqual(got, []string{database.KeyTasks, database.KeyDeadlines}) {
		t.Errorf("Update wrote %v, want tasks then deadlines", got)
	}

	kv.resetWrites()
	if err := m.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if got := kv.writeLog(); !reflect.DeepEqual(got, []string{database.KeyDeadlines, database.KeyTasks}) {
		t.Errorf("Delete wrote %v, want deadlines then tasks", got)
	}
}

func TestWrite_BatchWhenAvailable(t *testing.T) {
	t.Parallel()

	kv := &batchKV{flakyKV: newFlakyKV()}
	m := openManager(t, kv)
	ctx := context.Background()

	if _, err := m.AddTask(ctx, TaskInput{Title: "plain"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	if _, err := m.AddTask(ctx, TaskInput{Title: "dated", Deadline: "2024-06-01"}); err != nil {
		t.Fatalf("AddTask() error = %v", err)
	}
	want := []string{database.KeyTasks, "batch"}
	if got := kv.writeLog(); !reflect.DeepEqual(got, want) {
		t.Errorf("Writes = %v, want %v", got, want)
	}

	kv.failBatch = true
	if _, err := m.AddTask(ctx, TaskInput{Title: "lost", Deadline: "2024-06-02"}); !apperr.IsIO(err) {
		t.Fatalf("Expected IO error, got %v", err)
	}
	tasks, _ := m.ListTasks()
	if len(tasks) != 2 {
		t.Errorf("Expected mirror unchanged with 2 tasks, got %d", len(tasks))
	}
	if _, ok := m.DeadlineIndex()["2024-06-02"]; ok {
		t.Error("Expected index unchanged after failed batch")
	}
}

func TestWriteFailure_MirrorUnchanged(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	m := openManager(t, kv)
	ctx := context.Background()

	kept, _ := m.AddTask(ctx, TaskInput{Title: "kept"})
	kv.setFailure(database.KeyTasks, true, false)

	if _, err := m.AddTask(ctx, TaskInput{Title: "lost"}); !apperr.IsIO(err) {
		t.Errorf("Expected IO error from AddTask, got %v", err)
	}
	if err := m.CompleteTask(ctx, kept.ID); !apperr.IsIO(err) {
		t.Errorf("Expected IO error from CompleteTask, got %v", err)
	}

	tasks, _ := m.ListTasks()
	if len(tasks) != 1 || tasks[0].Status != models.TaskStatusPending {
		t.Errorf("Expected mirror unchanged, got %+v", tasks)
	}
}

func TestWriteFailure_SecondWriteOfAdd(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	m := openManager(t, kv)
	ctx := context.Background()

	kv.setFailure(database.KeyDeadlines, true, false)
	_, err := m.AddTask(ctx, TaskInput{Title: "half", Deadline: "2024-06-01"})
	if !apperr.IsIO(err) {
		t.Fatalf("Expected IO error, got %v", err)
	}

	// The task list write went through, the index write did not
	tasks, _ := m.ListTasks()
	if len(tasks) != 1 {
		t.Fatalf("Expected task from first write, got %d tasks", len(tasks))
	}
	if tasks[0].Deadline != "" {
		t.Errorf("Expected no derived deadline, got %q", tasks[0].Deadline)
	}
	if got := m.TasksOnDate("2024-06-01"); len(got) != 0 {
		t.Errorf("Expected nothing on date, got %+v", got)
	}
}

func TestWriteFailure_SecondWriteOfDelete(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	m := openManager(t, kv)
	ctx := context.Background()

	task, _ := m.AddTask(ctx, TaskInput{Title: "stuck", Deadline: "2024-06-01"})
	kv.setFailure(database.KeyTasks, true, false)

	if err := m.DeleteTask(ctx, task.ID); !apperr.IsIO(err) {
		t.Fatalf("Expected IO error, got %v", err)
	}
	if _, err := m.GetTask(task.ID); err != nil {
		t.Errorf("Expected task to survive, got %v", err)
	}
	if _, ok := m.DeadlineFor(task.ID); ok {
		t.Error("Expected index entry to be purged by the first write")
	}
}

func TestOpen_LoadFailure(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	seed(t, kv, `[{"id":1,"title":"a","description":"","status":"Pending","created_at":"2024-01-01T00:00:00.000Z"}]`, "")
	kv.setFailure(database.KeyTasks, false, true)
	ctx := context.Background()

	m, err := Open(ctx, kv)
	if !apperr.IsIO(err) || !m.Degraded() {
		t.Fatalf("Expected IO error from Open, got %v", err)
	}
	tasks, listErr := m.ListTasks()
	if len(tasks) != 0 || !apperr.IsIO(listErr) {
		t.Errorf("Expected empty list and IO error, got %d tasks, %v", len(tasks), listErr)
	}

	kv.resetWrites()
	if _, err := m.AddTask(ctx, TaskInput{Title: "b"}); !apperr.IsIO(err) {
		t.Errorf("Expected mutations to be refused, got %v", err)
	}
	if writes := kv.writeLog(); len(writes) != 0 {
		t.Errorf("Expected stored tasks to be left alone, got writes %v", writes)
	}

	kv.setFailure(database.KeyTasks, false, false)
	if err := m.Reload(ctx); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	tasks, listErr = m.ListTasks()
	if listErr != nil || len(tasks) != 1 {
		t.Errorf("Expected recovered list, got %d tasks, %v", len(tasks), listErr)
	}
	if _, err := m.AddTask(ctx, TaskInput{Title: "b"}); err != nil {
		t.Errorf("AddTask() after reload error = %v", err)
	}
}

func TestOpen_CorruptBlobIsQuarantined(t *testing.T) {
	t.Parallel()

	const pending = `[{"id":1,"title":"a","description":"","status":"Pending","created_at":"2024-01-01T00:00:00.000Z"}]`

	tests := []struct {
		name      string
		tasks     string
		deadlines string
		key       string
		wantTasks int
	}{
		{name: "corrupt index", tasks: pending, deadlines: "{not json", key: database.KeyDeadlines, wantTasks: 1},
		{name: "corrupt task list", tasks: "[{oops", deadlines: `{"2024-06-01":[1]}`, key: database.KeyTasks},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			kv := database.NewMemoryStore()
			seed(t, kv, tt.tasks, tt.deadlines)
			raw, _, _ := kv.Get(ctx, tt.key)

			m, err := Open(ctx, kv)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			if m.Degraded() {
				t.Fatal("Expected writes to be allowed after quarantine")
			}
			if preserved, ok, _ := kv.Get(ctx, database.CorruptKey(tt.key)); !ok || preserved != raw {
				t.Errorf("Expected %q preserved under %s, got %q", raw, database.CorruptKey(tt.key), preserved)
			}

			tasks, err := m.ListTasks()
			if err != nil || len(tasks) != tt.wantTasks {
				t.Errorf("ListTasks() = %d tasks, %v; want %d", len(tasks), err, tt.wantTasks)
			}
			// Index entries for tasks lost with a corrupt list are orphans
			if len(m.DeadlineIndex()) != 0 {
				t.Errorf("Expected empty index, got %v", m.DeadlineIndex())
			}

			task, err := m.AddTask(ctx, TaskInput{Title: "b", Deadline: "2024-06-02"})
			if err != nil {
				t.Fatalf("AddTask() error = %v", err)
			}
			if _, err := m.Reconcile(ctx); err != nil {
				t.Errorf("Reconcile() error = %v", err)
			}
			if err := m.Reload(ctx); err != nil {
				t.Fatalf("Reload() error = %v", err)
			}
			if date, ok := m.DeadlineFor(task.ID); !ok || date != "2024-06-02" {
				t.Errorf("Expected new deadline to survive reload, got %q, %v", date, ok)
			}
		})
	}
}

func TestOpen_CorruptBlobKeptWhenQuarantineFails(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	kv := newFlakyKV()
	seed(t, kv, "", "{not json")
	kv.setFailure(database.CorruptKey(database.KeyDeadlines), true, false)

	m, err := Open(ctx, kv)
	if !apperr.IsIO(err) || !m.Degraded() {
		t.Fatalf("Expected degraded manager, got %v", err)
	}
	if _, err := m.AddTask(ctx, TaskInput{Title: "b"}); !apperr.IsIO(err) {
		t.Errorf("Expected mutations to be refused, got %v", err)
	}
	if raw, _, _ := kv.Get(ctx, database.KeyDeadlines); raw != "{not json" {
		t.Errorf("Expected unpreserved blob left in place, got %q", raw)
	}
}

func TestEvents(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{}
	m := openManager(t, database.NewMemoryStore(), WithPublisher(pub))
	ctx := context.Background()

	task, _ := m.AddTask(ctx, TaskInput{Title: "evented", Deadline: "2024-06-01"})
	_, _ = m.UpdateTask(ctx, task.ID, TaskInput{Title: "evented"})
	_ = m.CompleteTask(ctx, task.ID)
	_ = m.SetTaskDeadline(ctx, task.ID, "2024-06-02")
	_ = m.RemoveTaskDeadline(ctx, task.ID)
	_ = m.DeleteTask(ctx, task.ID)

	want := []queue.EventType{
		queue.EventTaskCreated,
		queue.EventDeadlineSet,
		queue.EventTaskUpdated,
		queue.EventDeadlineCleared,
		queue.EventTaskCompleted,
		queue.EventDeadlineSet,
		queue.EventDeadlineCleared,
		queue.EventTaskDeleted,
	}
	if got := pub.types(); !reflect.DeepEqual(got, want) {
		t.Errorf("Events = %v, want %v", got, want)
	}
}

func TestEvents_PublishFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	pub := &recordingPublisher{err: errInjected}
	m := openManager(t, database.NewMemoryStore(), WithPublisher(pub))

	if _, err := m.AddTask(context.Background(), TaskInput{Title: "still saved"}); err != nil {
		t.Fatalf("Expected publish failure to be swallowed, got %v", err)
	}
	tasks, _ := m.ListTasks()
	if len(tasks) != 1 {
		t.Errorf("Expected 1 task, got %d", len(tasks))
	}
}

func TestEvents_NoneOnFailure(t *testing.T) {
	t.Parallel()

	kv := newFlakyKV()
	pub := &recordingPublisher{}
	m := openManager(t, kv, WithPublisher(pub))
	kv.setFailure(database.KeyTasks, true, false)

	_, _ = m.AddTask(context.Background(), TaskInput{Title: "nope"})
	if got := pub.types(); len(got) != 0 {
		t.Errorf("Expected no events, got %v", got)
	}
}
