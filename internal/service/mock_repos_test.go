package service

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"schedule-ai/backend/internal/model"
	"schedule-ai/backend/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("邮箱重复")
		}
	}
	user.CreatedAt = time.Now()
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) ListByClassroom(_ context.Context, school, grade, class string) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == model.RoleStudent && u.School == school && u.Grade == grade && u.Class == class {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) List(_ context.Context, _, _ int) ([]model.User, int64, error) {
	var result []model.User
	for _, u := range m.users {
		result = append(result, *u)
	}
	return result, int64(len(result)), nil
}

func (m *mockUserRepo) Delete(_ context.Context, id string) error {
	delete(m.users, id)
	return nil
}

// ── Mock ClassroomRepository ──

type mockClassroomRepo struct {
	classrooms map[string]*model.Classroom
	saveCount  int
}

func newMockClassroomRepo() *mockClassroomRepo {
	return &mockClassroomRepo{classrooms: make(map[string]*model.Classroom)}
}

func (m *mockClassroomRepo) Get(_ context.Context, id string) (*model.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockClassroomRepo) List(_ context.Context) ([]model.Classroom, error) {
	var result []model.Classroom
	for _, c := range m.classrooms {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockClassroomRepo) Save(_ context.Context, c *model.Classroom) error {
	m.saveCount++
	c.UpdatedAt = time.Now()
	m.classrooms[c.ClassroomID] = c
	return nil
}

func (m *mockClassroomRepo) Delete(_ context.Context, id string) error {
	delete(m.classrooms, id)
	return nil
}

// ── Mock ExplanationRepository ──

type mockExplanationRepo struct {
	explanations map[string]*model.Explanation
	seq          int
}

func newMockExplanationRepo() *mockExplanationRepo {
	return &mockExplanationRepo{explanations: make(map[string]*model.Explanation)}
}

func (m *mockExplanationRepo) Create(_ context.Context, e *model.Explanation) error {
	if e.ExplanationID == "" {
		m.seq++
		e.ExplanationID = fmt.Sprintf("exp-%d", m.seq)
	}
	e.CreatedAt = time.Now()
	m.explanations[e.ExplanationID] = e
	return nil
}

func (m *mockExplanationRepo) GetByID(_ context.Context, id string) (*model.Explanation, error) {
	if e, ok := m.explanations[id]; ok {
		clone := *e
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockExplanationRepo) ListByClassroom(_ context.Context, classroomID string) ([]model.Explanation, error) {
	var result []model.Explanation
	for _, e := range m.explanations {
		if e.ClassroomID == classroomID {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExplanationRepo) ListByClassroomAndSubject(_ context.Context, classroomID, subject string) ([]model.Explanation, error) {
	var result []model.Explanation
	for _, e := range m.explanations {
		if e.ClassroomID == classroomID && e.Subject == subject {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExplanationRepo) ListUpcoming(_ context.Context, until time.Time) ([]model.Explanation, error) {
	var result []model.Explanation
	for _, e := range m.explanations {
		if e.Status == model.StatusUpcoming && !e.ExplanationDate.After(until) {
			result = append(result, *e)
		}
	}
	return result, nil
}

func (m *mockExplanationRepo) UpdateContributors(_ context.Context, id string, contributors model.ContributorList) error {
	e, ok := m.explanations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Contributors = contributors
	return nil
}

func (m *mockExplanationRepo) UpdateCompletionStatus(_ context.Context, id, status string) (bool, error) {
	e, ok := m.explanations[id]
	if !ok || e.CompletionStatus != model.CompletionPending {
		return false, nil
	}
	e.CompletionStatus = status
	return true, nil
}

func (m *mockExplanationRepo) MarkFinished(_ context.Context, ids []string) (int64, error) {
	var n int64
	for _, id := range ids {
		if e, ok := m.explanations[id]; ok && e.Status == model.StatusUpcoming {
			e.Status = model.StatusFinished
			n++
		}
	}
	return n, nil
}

func (m *mockExplanationRepo) Delete(_ context.Context, id string) error {
	delete(m.explanations, id)
	return nil
}

func (m *mockExplanationRepo) DeleteByClassroom(_ context.Context, classroomID string) (int64, error) {
	var n int64
	for id, e := range m.explanations {
		if e.ClassroomID == classroomID {
			delete(m.explanations, id)
			n++
		}
	}
	return n, nil
}

// ── 测试装配 ──

func newTestRepository() (*repository.Repository, *mockUserRepo, *mockClassroomRepo, *mockExplanationRepo) {
	users := newMockUserRepo()
	classrooms := newMockClassroomRepo()
	explanations := newMockExplanationRepo()
	return &repository.Repository{
		User:        users,
		Classroom:   classrooms,
		Explanation: explanations,
	}, users, classrooms, explanations
}
