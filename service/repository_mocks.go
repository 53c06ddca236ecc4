package service

import (
	"time"

	"github.com/stretchr/testify/mock"

	"betpool/models"
)

// MockSessionRepository is a mock implementation of SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Save(record *models.BetRecord) error {
	args := m.Called(record)
	return args.Error(0)
}

func (m *MockSessionRepository) Load(id string) (*models.BetRecord, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetRecord), args.Error(1)
}

func (m *MockSessionRepository) Exists(id string) bool {
	args := m.Called(id)
	return args.Bool(0)
}

func (m *MockSessionRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockSessionRepository) List() ([]models.RecordHeader, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.RecordHeader), args.Error(1)
}

// MockTemplateRepository is a mock implementation of TemplateRepository
type MockTemplateRepository struct {
	mock.Mock
}

func (m *MockTemplateRepository) Save(template *models.Template) error {
	args := m.Called(template)
	return args.Error(0)
}

func (m *MockTemplateRepository) Load(name string) (*models.Template, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Template), args.Error(1)
}

func (m *MockTemplateRepository) Exists(name string) bool {
	args := m.Called(name)
	return args.Bool(0)
}

func (m *MockTemplateRepository) Delete(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockTemplateRepository) List() ([]models.TemplateInfo, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TemplateInfo), args.Error(1)
}

// MockTrashRepository is a mock implementation of TrashRepository
type MockTrashRepository struct {
	mock.Mock
}

func (m *MockTrashRepository) Backup(record *models.BetRecord, at time.Time) error {
	args := m.Called(record, at)
	return args.Error(0)
}

func (m *MockTrashRepository) Load(key models.TrashKey) (*models.BetRecord, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.BetRecord), args.Error(1)
}

func (m *MockTrashRepository) Delete(key models.TrashKey) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockTrashRepository) ListForID(id string) ([]models.TrashEntry, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TrashEntry), args.Error(1)
}

func (m *MockTrashRepository) Latest(id string) (models.TrashKey, error) {
	args := m.Called(id)
	return args.Get(0).(models.TrashKey), args.Error(1)
}

func (m *MockTrashRepository) PurgeOlderThan(cutoff time.Time) (int, error) {
	args := m.Called(cutoff)
	return args.Int(0), args.Error(1)
}
