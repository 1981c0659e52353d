package prediction

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrInvalidInput    = errors.New("invalid prediction request")
	ErrPatientNotFound = errors.New("patient not found")
	ErrTaskNotFound    = errors.New("prediction task not found")

	errModelNotAvailable = errors.New("model not available")
)

type Service struct {
	repo     Repository
	patients PatientDirectory
	pool     *Pool
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(repo Repository, patients PatientDirectory, pool *Pool, log zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, pool: pool, log: log, now: time.Now}
}

func (s *Service) checkPatient(ctx context.Context, patientUUID string) (uuid.UUID, error) {
	id, err := uuid.Parse(patientUUID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: patient_uuid is not a valid uuid", ErrInvalidInput)
	}
	ok, err := s.patients.Exists(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, ErrPatientNotFound
	}
	return id, nil
}

// enqueue records the task and hands it to the pool. A full queue fails the
// task on the spot so polling never sees a PENDING task nobody will run.
func (s *Service) enqueue(ctx context.Context, patientUUID, taskType string, input interface{}, run func() (interface{}, error)) (*Task, error) {
	patientID, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}

	inputData, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	task := &Task{
		TaskID:    uuid.New(),
		PatientID: patientID,
		Type:      taskType,
		Status:    StatusPending,
		InputData: inputData,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, task); err != nil {
		return nil, err
	}

	if err := s.pool.Submit(task.TaskID, run); err != nil {
		task.Status = StatusFailed
		task.ErrorMessage = err.Error()
		if uerr := s.repo.Update(ctx, task); uerr != nil {
			s.log.Error().Err(uerr).Str("task_id", task.TaskID.String()).
				Msg("could not fail unqueued prediction task")
		}
		return nil, err
	}
	return task, nil
}

func (s *Service) PredictMortality(ctx context.Context, in MortalityInput) (*Task, error) {
	return s.enqueue(ctx, in.PatientUUID, TypeMortality, in, func() (interface{}, error) {
		return analyzeMortality(in), nil
	})
}

func (s *Service) PredictSOD2(ctx context.Context, in SOD2Input) (*Task, error) {
	return s.enqueue(ctx, in.PatientUUID, TypeSOD2Assessment, in, func() (interface{}, error) {
		return assessSOD2(in, s.now()), nil
	})
}

// PredictComplications accepts the request for interface parity with the
// other assessment types. The complication models are not deployed, so the
// task completes FAILED.
func (s *Service) PredictComplications(ctx context.Context, in ComplicationInput) (*Task, error) {
	return s.enqueue(ctx, in.PatientUUID, TypeComplication, in, func() (interface{}, error) {
		return nil, errModelNotAvailable
	})
}

func (s *Service) GetTask(ctx context.Context, taskUUID string) (*Task, error) {
	id, err := uuid.Parse(taskUUID)
	if err != nil {
		return nil, fmt.Errorf("%w: task id is not a valid uuid", ErrInvalidInput)
	}
	return s.repo.GetByTaskID(ctx, id)
}

func (s *Service) TasksForPatient(ctx context.Context, patientUUID string) ([]*Task, error) {
	patientID, err := s.checkPatient(ctx, patientUUID)
	if err != nil {
		return nil, err
	}
	tasks, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []*Task{}
	}
	return tasks, nil
}
