package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	. "taskmanager/pkg/test"
	"taskmanager/pkg/test/factory"

	"taskmanager/internal/adapter/database/memory"
	"taskmanager/internal/adapter/database/sqlite/repository"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/port"
	"taskmanager/internal/core/service"
)

type TaskServiceTestSuite struct {
	suite.Suite
	service *service.TaskService
	repo    port.TaskRepository
	cache   port.CacheRepository
	user    domain.User
	now     time.Time
}

func (s *TaskServiceTestSuite) SetupTest() {
	db := InitTestDB()

	s.repo = repository.NewTaskRepository(db, nil)
	s.cache = memory.NewMemoryRepository(time.Minute)
	s.now = time.Now()

	s.service = service.NewTaskService(s.repo, memory.NewUndoStore(), nil,
		service.WithCache(s.cache, time.Minute),
		service.WithClock(func() time.Time { return s.now }),
	)

	user, err := repository.NewUserRepository(db, nil).Create(ctx, factory.NewUser[domain.User](map[string]any{
		"Email": "owner@example.com",
	}))
	s.Require().NoError(err)

	s.user = user
}

func TestTaskServiceTestSuite(t *testing.T) {
	RegisterTestingT(t)
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) create(title string, due time.Time, priority domain.Priority) domain.Task {
	task, err := s.service.Create(ctx, domain.Task{
		Title:       title,
		Description: title + " details",
		DueDate:     due,
		Priority:    priority,
		UserId:      s.user.ID,
	})

	s.Require().NoError(err)

	return task
}

func (s *TaskServiceTestSuite) TestCreate_AssignsDefaults() {
	due := s.now.Add(2 * time.Hour)

	task, err := s.service.Create(ctx, domain.Task{
		Title:       "  Pay rent ",
		Description: " monthly ",
		DueDate:     due,
		UserId:      s.user.ID,
		IsCompleted: true,
	})

	Expect(err).To(BeNil())
	Expect(task.UUID).NotTo(Equal(uuid.Nil))
	Expect(task.Title).To(Equal("Pay rent"))
	Expect(task.Description).To(Equal("monthly"))
	Expect(task.Priority).To(Equal(domain.PriorityMedium))
	Expect(task.IsCompleted).To(BeFalse())
	Expect(task.Date.Equal(s.now.UTC())).To(BeTrue())
	Expect(task.DueDate.Equal(due)).To(BeTrue())
}

func (s *TaskServiceTestSuite) TestCreate_RejectsBlankFieldsBeforeStorage() {
	spy := &spyRepository{}
	svc := service.NewTaskService(spy, memory.NewUndoStore(), nil)

	for _, task := range []domain.Task{
		{Title: "   ", Description: "desc", DueDate: s.now},
		{Title: "title", Description: "", DueDate: s.now},
		{Title: "title", Description: "desc"},
		{Title: "title", Description: "desc", DueDate: s.now, Priority: "urgent"},
	} {
		_, err := svc.Create(ctx, task)
		Expect(err).To(MatchError(domain.ErrValidation))
	}

	Expect(spy.calls).To(Equal(0))
}

func (s *TaskServiceTestSuite) TestList_OrderedByDueDate() {
	s.create("third", s.now.Add(72*time.Hour), domain.PriorityLow)
	s.create("first", s.now.Add(time.Hour), domain.PriorityHigh)
	s.create("second", s.now.Add(24*time.Hour), domain.PriorityMedium)

	tasks, err := s.service.List(ctx, s.user.ID)

	Expect(err).To(BeNil())
	Expect(titlesOf(tasks)).To(Equal([]string{"first", "second", "third"}))
}

func (s *TaskServiceTestSuite) TestList_ReadThroughCache() {
	task := s.create("cached", s.now.Add(time.Hour), domain.PriorityLow)

	_, err := s.service.List(ctx, s.user.ID)
	Expect(err).To(BeNil())

	// bypass the service so the cache is not invalidated
	s.repo.DeleteByUUID(ctx, s.user.ID, task.UUID.String())

	tasks, _ := s.service.List(ctx, s.user.ID)
	Expect(tasks).To(HaveLen(1))

	s.create("fresh", s.now.Add(time.Hour), domain.PriorityLow)

	tasks, _ = s.service.List(ctx, s.user.ID)
	Expect(titlesOf(tasks)).To(Equal([]string{"fresh"}))
}

func (s *TaskServiceTestSuite) TestListFiltered() {
	s.create("Buy milk", s.now.Add(time.Hour), domain.PriorityHigh)
	s.create("Call mom", s.now.Add(2*time.Hour), domain.PriorityLow)
	done := s.create("buy bread", s.now.Add(3*time.Hour), domain.PriorityHigh)

	s.service.MarkDone(ctx, s.user.ID, done.UUID.String())

	filter, _ := domain.ParseTaskFilter("active", "high", "BUY")
	tasks, err := s.service.ListFiltered(ctx, s.user.ID, filter)

	Expect(err).To(BeNil())
	Expect(titlesOf(tasks)).To(Equal([]string{"Buy milk"}))

	filter, _ = domain.ParseTaskFilter("history", "all", "")
	tasks, _ = s.service.ListFiltered(ctx, s.user.ID, filter)

	Expect(titlesOf(tasks)).To(Equal([]string{"buy bread"}))
}

func (s *TaskServiceTestSuite) TestGrouped() {
	now := time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC)

	s.create("today", now.Add(3*time.Hour), domain.PriorityLow)
	s.create("tomorrow", now.Add(24*time.Hour), domain.PriorityLow)
	s.create("later", now.Add(72*time.Hour), domain.PriorityLow)

	groups, err := s.service.Grouped(ctx, s.user.ID, domain.TaskFilter{View: domain.ViewAll}, now)

	Expect(err).To(BeNil())
	Expect(titlesOf(groups.Today)).To(Equal([]string{"today"}))
	Expect(titlesOf(groups.Tomorrow)).To(Equal([]string{"tomorrow"}))
	Expect(titlesOf(groups.ThisWeek)).To(Equal([]string{"later"}))
}

func (s *TaskServiceTestSuite) TestUpdateByUUID() {
	task := s.create("draft", s.now.Add(time.Hour), domain.PriorityLow)

	title := "final"
	priority := domain.PriorityHigh

	updated, err := s.service.UpdateByUUID(ctx, s.user.ID, task.UUID.String(), domain.TaskPatch{
		Title:    &title,
		Priority: &priority,
	})

	Expect(err).To(BeNil())
	Expect(updated.Title).To(Equal("final"))
	Expect(updated.Priority).To(Equal(domain.PriorityHigh))
	Expect(updated.Description).To(Equal("draft details"))
}

func (s *TaskServiceTestSuite) TestUpdateByUUID_Invalid() {
	task := s.create("draft", s.now.Add(time.Hour), domain.PriorityLow)

	_, err := s.service.UpdateByUUID(ctx, s.user.ID, task.UUID.String(), domain.TaskPatch{})
	Expect(err).To(MatchError(domain.ErrValidation))

	blank := "  "
	_, err = s.service.UpdateByUUID(ctx, s.user.ID, task.UUID.String(), domain.TaskPatch{Title: &blank})
	Expect(err).To(MatchError(domain.ErrValidation))
}

func (s *TaskServiceTestSuite) TestUpdateByUUID_NotFound() {
	_, err := s.service.UpdateByUUID(ctx, s.user.ID, uuid.NewString(), domain.CompletionPatch(true))

	Expect(err).To(MatchError(domain.ErrNotFound))
}

func (s *TaskServiceTestSuite) TestDeleteByUUID() {
	task := s.create("gone", s.now.Add(time.Hour), domain.PriorityLow)

	s.service.List(ctx, s.user.ID)

	Expect(s.service.DeleteByUUID(ctx, s.user.ID, task.UUID.String())).To(Succeed())

	tasks, _ := s.service.List(ctx, s.user.ID)
	Expect(tasks).To(BeEmpty())

	Expect(s.service.DeleteByUUID(ctx, s.user.ID, task.UUID.String())).To(MatchError(domain.ErrNotFound))
}

func (s *TaskServiceTestSuite) TestMarkDone_AndUndo() {
	task := s.create("walk dog", s.now.Add(time.Hour), domain.PriorityLow)

	done, ticket, err := s.service.MarkDone(ctx, s.user.ID, task.UUID.String())

	Expect(err).To(BeNil())
	Expect(done.IsCompleted).To(BeTrue())
	Expect(ticket.TaskUUID).To(Equal(task.UUID))
	Expect(ticket.ExpiresAt).To(BeTemporally("~", s.now.Add(service.DefaultUndoWindow), time.Millisecond))

	s.now = s.now.Add(4 * time.Second)

	reopened, err := s.service.Undo(ctx, s.user.ID, ticket.ID)

	Expect(err).To(BeNil())
	Expect(reopened.IsCompleted).To(BeFalse())

	_, err = s.service.Undo(ctx, s.user.ID, ticket.ID)
	Expect(err).To(MatchError(domain.ErrUndoExpired))
}

func (s *TaskServiceTestSuite) TestUndo_AfterWindow() {
	task := s.create("walk dog", s.now.Add(time.Hour), domain.PriorityLow)

	_, ticket, _ := s.service.MarkDone(ctx, s.user.ID, task.UUID.String())

	s.now = s.now.Add(service.DefaultUndoWindow)

	_, err := s.service.Undo(ctx, s.user.ID, ticket.ID)
	Expect(err).To(MatchError(domain.ErrUndoExpired))

	stored, _ := s.repo.GetByUUID(ctx, s.user.ID, task.UUID.String())
	Expect(stored.IsCompleted).To(BeTrue())
}

func (s *TaskServiceTestSuite) TestUndo_OtherUser() {
	task := s.create("walk dog", s.now.Add(time.Hour), domain.PriorityLow)

	_, ticket, _ := s.service.MarkDone(ctx, s.user.ID, task.UUID.String())

	_, err := s.service.Undo(ctx, s.user.ID+1, ticket.ID)

	Expect(err).To(MatchError(domain.ErrUndoExpired))

	reopened, err := s.service.Undo(ctx, s.user.ID, ticket.ID)

	Expect(err).To(BeNil())
	Expect(reopened.IsCompleted).To(BeFalse())
}

func (s *TaskServiceTestSuite) TestMarkDone_UndoStoreFailureReverts() {
	task := s.create("walk dog", s.now.Add(time.Hour), domain.PriorityLow)

	svc := service.NewTaskService(s.repo, failingUndoStore{err: errors.New("redis: connection refused")}, nil,
		service.WithCache(s.cache, time.Minute),
	)

	_, _, err := svc.MarkDone(ctx, s.user.ID, task.UUID.String())
	Expect(err).To(MatchError(ContainSubstring("connection refused")))

	stored, err := s.repo.GetByUUID(ctx, s.user.ID, task.UUID.String())
	Expect(err).To(BeNil())
	Expect(stored.IsCompleted).To(BeFalse())
}

func (s *TaskServiceTestSuite) TestList_CacheNotFilledByStaleRead() {
	task := s.create("walk dog", s.now.Add(time.Hour), domain.PriorityLow)

	gated := &gatedRepository{
		TaskRepository: s.repo,
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}

	svc := service.NewTaskService(gated, memory.NewUndoStore(), nil,
		service.WithCache(s.cache, time.Minute),
	)

	done := make(chan error)

	go func() {
		_, err := svc.List(ctx, s.user.ID)
		done <- err
	}()

	<-gated.entered

	_, _, err := svc.MarkDone(ctx, s.user.ID, task.UUID.String())
	s.Require().NoError(err)

	close(gated.release)
	s.Require().NoError(<-done)

	tasks, err := svc.List(ctx, s.user.ID)

	Expect(err).To(BeNil())
	Expect(tasks).To(HaveLen(1))
	Expect(tasks[0].IsCompleted).To(BeTrue())
}

func (s *TaskServiceTestSuite) TestMarkDone_NotFound() {
	_, _, err := s.service.MarkDone(ctx, s.user.ID, uuid.NewString())

	Expect(err).To(MatchError(domain.ErrNotFound))
}

func TestTaskService_UndoWindowOption(t *testing.T) {
	svc := service.NewTaskService(&spyRepository{}, memory.NewUndoStore(), nil, service.WithUndoWindow(2*time.Second))

	assert.Equal(t, 2*time.Second, svc.UndoWindow())

	svc = service.NewTaskService(&spyRepository{}, memory.NewUndoStore(), nil, service.WithUndoWindow(0))

	assert.Equal(t, service.DefaultUndoWindow, svc.UndoWindow())
}

func TestTaskService_ListError(t *testing.T) {
	failure := errors.New("disk I/O error")
	svc := service.NewTaskService(&spyRepository{err: failure}, memory.NewUndoStore(), nil)

	_, err := svc.List(context.Background(), 1)

	assert.ErrorIs(t, err, failure)
}

type spyRepository struct {
	calls int
	err   error
}

func (r *spyRepository) ListByUser(ctx context.Context, userId int) ([]domain.Task, error) {
	r.calls++
	return nil, r.err
}

func (r *spyRepository) GetByUUID(ctx context.Context, userId int, uid string) (domain.Task, error) {
	r.calls++
	return domain.Task{}, r.err
}

func (r *spyRepository) Create(ctx context.Context, task domain.Task) (domain.Task, error) {
	r.calls++
	return task, r.err
}

func (r *spyRepository) UpdateByUUID(ctx context.Context, userId int, uid string, patch domain.TaskPatch) (domain.Task, error) {
	r.calls++
	return domain.Task{}, r.err
}

func (r *spyRepository) DeleteByUUID(ctx context.Context, userId int, uid string) error {
	r.calls++
	return r.err
}

// gatedRepository holds the first ListByUser after it has read the rows,
// until release is closed.
type gatedRepository struct {
	port.TaskRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (r *gatedRepository) ListByUser(ctx context.Context, userId int) ([]domain.Task, error) {
	tasks, err := r.TaskRepository.ListByUser(ctx, userId)

	r.once.Do(func() {
		close(r.entered)
		<-r.release
	})

	return tasks, err
}

type failingUndoStore struct {
	err error
}

func (f failingUndoStore) Put(ctx context.Context, ticket domain.UndoTicket) error {
	return f.err
}

func (f failingUndoStore) Take(ctx context.Context, id string, userId int) (domain.UndoTicket, bool) {
	return domain.UndoTicket{}, false
}

func titlesOf(tasks []domain.Task) []string {
	titles := make([]string, 0, len(tasks))

	for _, task := range tasks {
		titles = append(titles, task.Title)
	}

	return titles
}
