package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"gorm.io/datatypes"

	"github.com/VIIT-EP/exam-service/internal/events"
	"github.com/VIIT-EP/exam-service/internal/models"
	"github.com/VIIT-EP/exam-service/internal/repositories"
	"github.com/VIIT-EP/exam-service/internal/validator"
)

// fakeRepo is an in-memory repositories.Repository for service tests.
type fakeRepo struct {
	students      map[uint]*models.Student
	papers        map[uint]*models.QuestionPaper
	questions     map[uint]*models.Question
	attempts      map[uint]*models.ExamAttempt
	results       map[uint]*models.Result // keyed by attempt id
	paperLinks    map[uint][]uint         // paper id -> question ids
	nextAttemptID uint
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		students:   make(map[uint]*models.Student),
		papers:     make(map[uint]*models.QuestionPaper),
		questions:  make(map[uint]*models.Question),
		attempts:   make(map[uint]*models.ExamAttempt),
		results:    make(map[uint]*models.Result),
		paperLinks: make(map[uint][]uint),
	}
}

func (f *fakeRepo) Users() repositories.UserRepository         { return nil }
func (f *fakeRepo) Questions() repositories.QuestionRepository { return &fakeQuestions{f} }
func (f *fakeRepo) Students() repositories.StudentRepository   { return &fakeStudents{f} }
func (f *fakeRepo) Papers() repositories.PaperRepository       { return &fakePapers{f} }
func (f *fakeRepo) Attempts() repositories.AttemptRepository   { return &fakeAttempts{f} }
func (f *fakeRepo) Results() repositories.ResultRepository     { return &fakeResults{f} }

func (f *fakeRepo) WithTransaction(ctx context.Context, fn func(repo repositories.Repository) error) error {
	return fn(f)
}
func (f *fakeRepo) Ping(ctx context.Context) error { return nil }
func (f *fakeRepo) Close() error                   { return nil }

type fakeStudents struct{ f *fakeRepo }

func (r *fakeStudents) Create(ctx context.Context, s *models.Student) error {
	s.ID = uint(len(r.f.students) + 1)
	r.f.students[s.ID] = s
	return nil
}
func (r *fakeStudents) GetByID(ctx context.Context, id uint) (*models.Student, error) {
	if s, ok := r.f.students[id]; ok {
		return s, nil
	}
	return nil, repositories.ErrNotFound
}
func (r *fakeStudents) GetByStudentID(ctx context.Context, code string) (*models.Student, error) {
	for _, s := range r.f.students {
		if s.StudentID == code {
			return s, nil
		}
	}
	return nil, repositories.ErrNotFound
}
func (r *fakeStudents) GetByEmail(ctx context.Context, email string) (*models.Student, error) {
	for _, s := range r.f.students {
		if s.Email == email {
			return s, nil
		}
	}
	return nil, repositories.ErrNotFound
}
func (r *fakeStudents) Update(ctx context.Context, s *models.Student) error { return nil }
func (r *fakeStudents) SetAttemptingFlag(ctx context.Context, id uint, attempting bool) error {
	s, ok := r.f.students[id]
	if !ok {
		return repositories.ErrNotFound
	}
	s.IsAttemptingExam = attempting
	return nil
}
func (r *fakeStudents) List(ctx context.Context, limit, offset int) ([]*models.Student, int64, error) {
	return nil, 0, nil
}
func (r *fakeStudents) Count(ctx context.Context) (int64, error) {
	return int64(len(r.f.students)), nil
}
func (r *fakeStudents) LastStudentID(ctx context.Context) (string, error) {
	last := ""
	for _, s := range r.f.students {
		if s.StudentID > last {
			last = s.StudentID
		}
	}
	return last, nil
}

type fakeQuestions struct{ f *fakeRepo }

func (r *fakeQuestions) Create(ctx context.Context, q *models.Question) error {
	if q.ID == 0 {
		q.ID = uint(len(r.f.questions) + 1)
	}
	r.f.questions[q.ID] = q
	return nil
}
func (r *fakeQuestions) CreateBatch(ctx context.Context, qs []*models.Question) error {
	for _, q := range qs {
		if err := r.Create(ctx, q); err != nil {
			return err
		}
	}
	return nil
}
func (r *fakeQuestions) GetByID(ctx context.Context, id uint) (*models.Question, error) {
	if q, ok := r.f.questions[id]; ok {
		return q, nil
	}
	return nil, repositories.ErrNotFound
}
func (r *fakeQuestions) GetByIDs(ctx context.Context, ids []uint) ([]*models.Question, error) {
	var out []*models.Question
	for _, id := range ids {
		if q, ok := r.f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}
func (r *fakeQuestions) List(ctx context.Context, filters repositories.QuestionFilters) ([]*models.Question, int64, error) {
	return nil, 0, nil
}
func (r *fakeQuestions) ListForAssembly(ctx context.Context, subjects []models.Subject) ([]*models.Question, error) {
	wanted := make(map[models.Subject]bool)
	for _, s := range subjects {
		wanted[s] = true
	}
	var out []*models.Question
	for _, q := range r.f.questions {
		if len(wanted) == 0 || wanted[q.Subject] {
			out = append(out, q)
		}
	}
	return out, nil
}
func (r *fakeQuestions) Inventory(ctx context.Context) ([]repositories.InventoryCount, error) {
	return nil, nil
}
func (r *fakeQuestions) Delete(ctx context.Context, id uint) error {
	if _, ok := r.f.questions[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.f.questions, id)
	return nil
}
func (r *fakeQuestions) Count(ctx context.Context) (int64, error) {
	return int64(len(r.f.questions)), nil
}

type fakePapers struct{ f *fakeRepo }

func (r *fakePapers) Create(ctx context.Context, p *models.QuestionPaper, ids []uint) error {
	seen := make(map[uint]bool)
	for _, id := range ids {
		if seen[id] {
			return repositories.ErrDuplicate
		}
		seen[id] = true
	}
	p.ID = uint(len(r.f.papers) + 1)
	r.f.papers[p.ID] = p
	r.f.paperLinks[p.ID] = ids
	return nil
}
func (r *fakePapers) GetByID(ctx context.Context, id uint) (*models.QuestionPaper, error) {
	if p, ok := r.f.papers[id]; ok {
		return p, nil
	}
	return nil, repositories.ErrNotFound
}
func (r *fakePapers) GetWithQuestions(ctx context.Context, id uint) (*models.QuestionPaper, error) {
	return r.GetByID(ctx, id)
}
func (r *fakePapers) List(ctx context.Context, filters repositories.PaperFilters) ([]*models.QuestionPaper, int64, error) {
	return nil, 0, nil
}
func (r *fakePapers) SetActive(ctx context.Context, id uint, active bool) error {
	p, ok := r.f.papers[id]
	if !ok {
		return repositories.ErrNotFound
	}
	p.IsActive = active
	return nil
}
func (r *fakePapers) Delete(ctx context.Context, id uint) error { return nil }

type fakeAttempts struct{ f *fakeRepo }

func (r *fakeAttempts) Create(ctx context.Context, a *models.ExamAttempt) error {
	for _, existing := range r.f.attempts {
		if existing.StudentID == a.StudentID && existing.PaperID == a.PaperID && !existing.IsCompleted {
			return repositories.ErrDuplicate
		}
	}
	r.f.nextAttemptID++
	a.ID = r.f.nextAttemptID
	r.f.attempts[a.ID] = a
	return nil
}
func (r *fakeAttempts) GetByID(ctx context.Context, id uint) (*models.ExamAttempt, error) {
	a, ok := r.f.attempts[id]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	if p, ok := r.f.papers[a.PaperID]; ok {
		a.Paper = *p
	}
	return a, nil
}
func (r *fakeAttempts) GetOpen(ctx context.Context, studentID, paperID uint) (*models.ExamAttempt, error) {
	for _, a := range r.f.attempts {
		if a.StudentID == studentID && a.PaperID == paperID && !a.IsCompleted {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}
func (r *fakeAttempts) GetCompleted(ctx context.Context, studentID, paperID uint) (*models.ExamAttempt, error) {
	for _, a := range r.f.attempts {
		if a.StudentID == studentID && a.PaperID == paperID && a.IsCompleted {
			return a, nil
		}
	}
	return nil, repositories.ErrNotFound
}
func (r *fakeAttempts) Update(ctx context.Context, a *models.ExamAttempt) error {
	r.f.attempts[a.ID] = a
	return nil
}
func (r *fakeAttempts) ListByStudent(ctx context.Context, studentID uint) ([]*models.ExamAttempt, error) {
	return nil, nil
}
func (r *fakeAttempts) ListOpenOlderThan(ctx context.Context, cutoff time.Time) ([]*models.ExamAttempt, error) {
	var out []*models.ExamAttempt
	for _, a := range r.f.attempts {
		if !a.IsCompleted && a.StartTime.Before(cutoff) {
			if p, ok := r.f.papers[a.PaperID]; ok {
				a.Paper = *p
			}
			out = append(out, a)
		}
	}
	return out, nil
}
func (r *fakeAttempts) CountByPaper(ctx context.Context, paperID uint) (int64, error) {
	var n int64
	for _, a := range r.f.attempts {
		if a.PaperID == paperID {
			n++
		}
	}
	return n, nil
}
func (r *fakeAttempts) CountCompletedSince(ctx context.Context, since time.Time) (int64, error) {
	return 0, nil
}

type fakeResults struct{ f *fakeRepo }

func (r *fakeResults) Upsert(ctx context.Context, res *models.Result) error {
	r.f.results[res.AttemptID] = res
	return nil
}
func (r *fakeResults) GetByAttemptID(ctx context.Context, attemptID uint) (*models.Result, error) {
	if res, ok := r.f.results[attemptID]; ok {
		return res, nil
	}
	return nil, repositories.ErrNotFound
}
func (r *fakeResults) ListByPaper(ctx context.Context, paperID uint) ([]*models.Result, error) {
	var out []*models.Result
	for attemptID, res := range r.f.results {
		a, ok := r.f.attempts[attemptID]
		if !ok || a.PaperID != paperID || !a.IsCompleted {
			continue
		}
		res.Attempt = *a
		if s, ok := r.f.students[a.StudentID]; ok {
			res.Attempt.Student = *s
		}
		if p, ok := r.f.papers[a.PaperID]; ok {
			res.Attempt.Paper = *p
		}
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TotalScore > out[j].TotalScore })
	return out, nil
}
func (r *fakeResults) ListByStudent(ctx context.Context, studentID uint) ([]*models.Result, error) {
	return nil, nil
}
func (r *fakeResults) TopByPaper(ctx context.Context, paperID uint, limit int) ([]*models.Result, error) {
	rows, err := r.ListByPaper(ctx, paperID)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}
func (r *fakeResults) CountByPaper(ctx context.Context, paperID uint) (int64, error) {
	rows, err := r.ListByPaper(ctx, paperID)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}
func (r *fakeResults) AverageByPaper(ctx context.Context, paperID uint) (float64, error) {
	rows, err := r.ListByPaper(ctx, paperID)
	if err != nil || len(rows) == 0 {
		return 0, err
	}
	sum := 0
	for _, res := range rows {
		sum += res.TotalScore
	}
	return float64(sum) / float64(len(rows)), nil
}

// ===== fixtures =====

func mustJSON(t *testing.T, v any) datatypes.JSON {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}
	return datatypes.JSON(raw)
}

func fixturePaper(t *testing.T, repo *fakeRepo, start time.Time) *models.QuestionPaper {
	t.Helper()
	questions := []models.Question{
		{ID: 1, Subject: models.SubjectPhysics, CorrectIndex: 0, Options: mustJSON(t, []string{"a", "b"})},
		{ID: 2, Subject: models.SubjectPhysics, CorrectIndex: 1, Options: mustJSON(t, []string{"a", "b"})},
		{ID: 3, Subject: models.SubjectChemistry, CorrectIndex: 2, Options: mustJSON(t, []string{"a", "b", "c"})},
	}
	links := make([]models.PaperQuestion, 0, len(questions))
	for _, q := range questions {
		links = append(links, models.PaperQuestion{QuestionID: q.ID, Question: q})
	}
	paper := &models.QuestionPaper{
		ID:             1,
		Title:          "Mock Test 1",
		DurationHours:  3,
		StartTime:      &start,
		TotalMarks:     len(questions),
		IsActive:       true,
		PaperQuestions: links,
	}
	repo.papers[paper.ID] = paper
	return paper
}

func fixtureStudent(repo *fakeRepo) *models.Student {
	student := &models.Student{ID: 1, StudentID: "VIIT000001", FullName: "Test Student"}
	repo.students[student.ID] = student
	return student
}

func newTestAttemptService(repo *fakeRepo, at time.Time) (*attemptService, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(logger)
	svc := &attemptService{
		repo:           repo,
		logger:         logger,
		validator:      validator.New(),
		eventPublisher: publisher,
		eventTopic:     "test.notifications",
		now:            func() time.Time { return at },
	}
	return svc, publisher
}

// ===== tests =====

func TestStart_AdmissionWindow(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		at      time.Time
		wantErr error
	}{
		{"exactly at start", start, nil},
		{"just inside the window", start.Add(15*time.Minute - time.Second), nil},
		{"exactly at window close", start.Add(15 * time.Minute), ErrAdmissionClosed},
		{"one second past the window", start.Add(15*time.Minute + time.Second), ErrAdmissionClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			fixturePaper(t, repo, start)
			student := fixtureStudent(repo)
			svc, _ := newTestAttemptService(repo, tt.at)

			session, err := svc.Start(context.Background(), student.ID, 1)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Start() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Start() failed: %v", err)
			}
			if session.Resumed {
				t.Error("fresh start reported as resumed")
			}
			if len(session.Questions) != 3 {
				t.Errorf("session has %d questions, want 3", len(session.Questions))
			}
			if !student.IsAttemptingExam {
				t.Error("attempting flag not set on start")
			}
		})
	}
}

func TestStart_BeforeScheduledStart(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)
	svc, _ := newTestAttemptService(repo, start.Add(-time.Second))

	_, err := svc.Start(context.Background(), student.ID, 1)
	var conflict *StateConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("early start error = %v, want StateConflictError", err)
	}
	// The rejection must tell the student when admission opens.
	if !strings.Contains(err.Error(), "2026-03-10T09:00:00Z") {
		t.Errorf("error %q does not carry the scheduled start", err.Error())
	}
}

func TestStart_UnscheduledPaperAlwaysOpen(t *testing.T) {
	repo := newFakeRepo()
	paper := fixturePaper(t, repo, time.Time{})
	paper.StartTime = nil
	student := fixtureStudent(repo)
	svc, _ := newTestAttemptService(repo, time.Date(2026, 3, 10, 23, 0, 0, 0, time.UTC))

	if _, err := svc.Start(context.Background(), student.ID, 1); err != nil {
		t.Fatalf("unscheduled paper should admit any time, got %v", err)
	}
}

func TestStart_InactivePaper(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	paper := fixturePaper(t, repo, start)
	paper.IsActive = false
	student := fixtureStudent(repo)
	svc, _ := newTestAttemptService(repo, start)

	if _, err := svc.Start(context.Background(), student.ID, 1); !errors.Is(err, ErrPaperInactive) {
		t.Fatalf("Start() error = %v, want ErrPaperInactive", err)
	}
}

func TestStart_ResumeBypassesWindowAndKeepsDeadline(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)

	svc, _ := newTestAttemptService(repo, start.Add(2*time.Minute))
	first, err := svc.Start(context.Background(), student.ID, 1)
	if err != nil {
		t.Fatalf("first start failed: %v", err)
	}

	// Save partial answers, then come back well after the admission window.
	attempt := repo.attempts[first.AttemptID]
	attempt.Answers = mustJSON(t, map[uint]int{1: 0})

	later, _ := newTestAttemptService(repo, start.Add(45*time.Minute))
	resumed, err := later.Start(context.Background(), student.ID, 1)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if !resumed.Resumed {
		t.Error("resume not flagged")
	}
	if resumed.AttemptID != first.AttemptID {
		t.Errorf("resume created a new attempt: %d != %d", resumed.AttemptID, first.AttemptID)
	}
	if resumed.SavedAnswers[1] != 0 {
		t.Errorf("saved answers not returned: %v", resumed.SavedAnswers)
	}

	// Deadline anchors to the original start, not the resume time.
	wantRemaining := attempt.StartTime.Add(3 * time.Hour).Sub(start.Add(45 * time.Minute))
	if resumed.TimeRemaining != wantRemaining {
		t.Errorf("TimeRemaining = %v, want %v", resumed.TimeRemaining, wantRemaining)
	}
}

func TestStart_ExpiredAttemptIsFinalized(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)

	svc, _ := newTestAttemptService(repo, start)
	first, err := svc.Start(context.Background(), student.ID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	repo.attempts[first.AttemptID].Answers = mustJSON(t, map[uint]int{1: 0, 2: 0})

	// Come back after the 3 hour duration has fully elapsed.
	later, _ := newTestAttemptService(repo, start.Add(4*time.Hour))
	_, err = later.Start(context.Background(), student.ID, 1)
	if !errors.Is(err, ErrAttemptExpired) {
		t.Fatalf("Start() error = %v, want ErrAttemptExpired", err)
	}

	attempt := repo.attempts[first.AttemptID]
	if !attempt.IsCompleted {
		t.Error("expired attempt not finalized")
	}
	if attempt.Score == nil || *attempt.Score != 1 {
		t.Errorf("expired attempt scored %v, want 1 from saved answers", attempt.Score)
	}
	if student.IsAttemptingExam {
		t.Error("attempting flag not cleared after expiry")
	}
}

func TestStart_CompletedAttemptBlocksReentry(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)

	svc, _ := newTestAttemptService(repo, start)
	session, err := svc.Start(context.Background(), student.ID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := svc.Submit(context.Background(), student.ID, &validator.SubmitAttemptRequest{
		AttemptID: session.AttemptID,
		Answers:   map[uint]int{1: 0},
	}); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if _, err := svc.Start(context.Background(), student.ID, 1); !errors.Is(err, ErrAlreadyAttempted) {
		t.Fatalf("Start() after completion error = %v, want ErrAlreadyAttempted", err)
	}
}

func TestSubmit_ScoresAndFinalizes(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)

	svc, publisher := newTestAttemptService(repo, start)
	session, err := svc.Start(context.Background(), student.ID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	result, err := svc.Submit(context.Background(), student.ID, &validator.SubmitAttemptRequest{
		AttemptID: session.AttemptID,
		Answers:   map[uint]int{1: 0, 2: 1, 3: 0},
	})
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	if result.TotalScore != 2 {
		t.Errorf("TotalScore = %d, want 2", result.TotalScore)
	}
	if got := result.Analysis[models.SubjectPhysics]; got != (models.SubjectScore{Score: 2, Total: 2}) {
		t.Errorf("physics analysis = %+v", got)
	}
	if got := result.Analysis[models.SubjectChemistry]; got != (models.SubjectScore{Score: 0, Total: 1}) {
		t.Errorf("chemistry analysis = %+v", got)
	}
	if student.IsAttemptingExam {
		t.Error("attempting flag not cleared on submit")
	}

	var sawSubmitted bool
	for _, e := range publisher.GetPublishedEvents() {
		if e.Type == events.TypeExamSubmitted {
			sawSubmitted = true
		}
	}
	if !sawSubmitted {
		t.Error("no submission event published")
	}
}

func TestSubmit_SecondSubmissionRejected(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)

	svc, _ := newTestAttemptService(repo, start)
	session, _ := svc.Start(context.Background(), student.ID, 1)

	req := &validator.SubmitAttemptRequest{AttemptID: session.AttemptID, Answers: map[uint]int{1: 0}}
	first, err := svc.Submit(context.Background(), student.ID, req)
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// A replay with different answers must not change the stored result.
	req2 := &validator.SubmitAttemptRequest{AttemptID: session.AttemptID, Answers: map[uint]int{1: 0, 2: 1, 3: 2}}
	if _, err := svc.Submit(context.Background(), student.ID, req2); !errors.Is(err, ErrAttemptCompleted) {
		t.Fatalf("second submit error = %v, want ErrAttemptCompleted", err)
	}

	stored := repo.results[session.AttemptID]
	if stored.TotalScore != first.TotalScore {
		t.Errorf("stored score changed after replay: %d != %d", stored.TotalScore, first.TotalScore)
	}
}

func TestSubmit_OtherStudentsAttempt(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)
	intruder := &models.Student{ID: 2, StudentID: "VIIT000002"}
	repo.students[intruder.ID] = intruder

	svc, _ := newTestAttemptService(repo, start)
	session, _ := svc.Start(context.Background(), student.ID, 1)

	_, err := svc.Submit(context.Background(), intruder.ID, &validator.SubmitAttemptRequest{
		AttemptID: session.AttemptID,
		Answers:   map[uint]int{},
	})
	var permission *PermissionError
	if !errors.As(err, &permission) {
		t.Fatalf("submit by intruder error = %v, want PermissionError", err)
	}
}

func TestSanitizeQuestion_HidesAnswerKey(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)

	svc, _ := newTestAttemptService(repo, start)
	session, err := svc.Start(context.Background(), student.ID, 1)
	if err != nil {
		t.Fatalf("start failed: %v", err)
	}

	raw, err := json.Marshal(session.Questions)
	if err != nil {
		t.Fatalf("marshal session: %v", err)
	}
	if strings.Contains(string(raw), "correct_index") {
		t.Error("exam session leaks the answer key")
	}
}

func TestReconcileAttemptingFlags(t *testing.T) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo()
	fixturePaper(t, repo, start)
	student := fixtureStudent(repo)

	svc, _ := newTestAttemptService(repo, start)
	if _, err := svc.Start(context.Background(), student.ID, 1); err != nil {
		t.Fatalf("start failed: %v", err)
	}

	// Sweep while time remains: nothing closes.
	if closed, err := svc.ReconcileAttemptingFlags(context.Background()); err != nil || closed != 0 {
		t.Fatalf("early sweep closed %d (err %v), want 0", closed, err)
	}

	// Sweep after the duration has elapsed.
	later, _ := newTestAttemptService(repo, start.Add(4*time.Hour))
	closed, err := later.ReconcileAttemptingFlags(context.Background())
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if closed != 1 {
		t.Errorf("sweep closed %d attempts, want 1", closed)
	}
	if student.IsAttemptingExam {
		t.Error("attempting flag survived the sweep")
	}
}
