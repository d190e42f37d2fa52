package engine

import (
	"context"
	"time"

	"github.com/kerstenscheffer/my-arc-sub008/internal/domain"
	"github.com/kerstenscheffer/my-arc-sub008/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory fakes backing the engine tests. Each fake enforces the same
// uniqueness the mongo indexes enforce, so duplicate-key behavior is
// exercised for real instead of being stubbed.

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func inRange(d, from, to time.Time) bool {
	d = dateOnly(d)
	return !d.Before(dateOnly(from)) && !d.After(dateOnly(to))
}

// --- Workout fake ---

type fakeWorkoutRepo struct {
	entries   []domain.WorkoutCompletion
	findErr   error
	insertErr error
}

func (f *fakeWorkoutRepo) FindInRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WorkoutCompletion, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.WorkoutCompletion
	for _, e := range f.entries {
		if e.ClientID == clientID && inRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWorkoutRepo) Insert(_ context.Context, entry *domain.WorkoutCompletion) (primitive.ObjectID, error) {
	if f.insertErr != nil {
		return primitive.NilObjectID, f.insertErr
	}
	for _, e := range f.entries {
		if e.ClientID == entry.ClientID && dateOnly(e.Date).Equal(dateOnly(entry.Date)) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	entry.ID = primitive.NewObjectID()
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakeWorkoutRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Meal fake ---

type fakeMealRepo struct {
	entries []domain.MealProgressDay
	findErr error
}

func (f *fakeMealRepo) FindInRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.MealProgressDay, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.MealProgressDay
	for _, e := range f.entries {
		if e.ClientID == clientID && inRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeMealRepo) Insert(_ context.Context, entry *domain.MealProgressDay) (primitive.ObjectID, error) {
	for _, e := range f.entries {
		if e.ClientID == entry.ClientID && dateOnly(e.Date).Equal(dateOnly(entry.Date)) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	entry.ID = primitive.NewObjectID()
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakeMealRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- WeighIn fake ---

type fakeWeighInRepo struct {
	entries []domain.WeighIn
	findErr error
}

func (f *fakeWeighInRepo) FindInRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeighIn, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.WeighIn
	for _, e := range f.entries {
		if e.ClientID == clientID && inRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeWeighInRepo) LatestByClientID(_ context.Context, clientID primitive.ObjectID) (*domain.WeighIn, error) {
	var latest *domain.WeighIn
	for i := range f.entries {
		e := f.entries[i]
		if e.ClientID != clientID {
			continue
		}
		if latest == nil || e.Date.After(latest.Date) {
			latest = &e
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	return latest, nil
}

func (f *fakeWeighInRepo) Insert(_ context.Context, entry *domain.WeighIn) (primitive.ObjectID, error) {
	for _, e := range f.entries {
		if e.ClientID == entry.ClientID && dateOnly(e.Date).Equal(dateOnly(entry.Date)) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	entry.ID = primitive.NewObjectID()
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakeWeighInRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Photo fake ---

type fakePhotoRepo struct {
	entries    []domain.ProgressPhoto
	findErr    error
	failOnType domain.PhotoType // injects a write failure for one photo type
}

func (f *fakePhotoRepo) FindInRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.ProgressPhoto, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.ProgressPhoto
	for _, e := range f.entries {
		if e.ClientID == clientID && inRange(e.Date, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakePhotoRepo) Insert(_ context.Context, entry *domain.ProgressPhoto) (primitive.ObjectID, error) {
	if f.failOnType != "" && entry.Type == f.failOnType {
		return primitive.NilObjectID, repository.ErrUpdateFailed
	}
	for _, e := range f.entries {
		if e.ClientID == entry.ClientID && e.Type == entry.Type && dateOnly(e.Date).Equal(dateOnly(entry.Date)) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	entry.ID = primitive.NewObjectID()
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakePhotoRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// --- Call fake ---

type fakeCallRepo struct {
	entries []domain.CompletedCall
	plans   []domain.CallPlan
	findErr error
}

func (f *fakeCallRepo) FindInRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.CompletedCall, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	var out []domain.CompletedCall
	for _, e := range f.entries {
		if e.ClientID == clientID && inRange(e.ScheduledDate, from, to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCallRepo) Insert(_ context.Context, entry *domain.CompletedCall) (primitive.ObjectID, error) {
	for _, e := range f.entries {
		if e.ClientID == entry.ClientID && dateOnly(e.ScheduledDate).Equal(dateOnly(entry.ScheduledDate)) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	entry.ID = primitive.NewObjectID()
	f.entries = append(f.entries, *entry)
	return entry.ID, nil
}

func (f *fakeCallRepo) DeleteByID(_ context.Context, id primitive.ObjectID) error {
	for i, e := range f.entries {
		if e.ID == id {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeCallRepo) LatestPlanIDForClient(_ context.Context, clientID primitive.ObjectID) (primitive.ObjectID, error) {
	var latest *domain.CompletedCall
	for i := range f.entries {
		e := f.entries[i]
		if e.ClientID != clientID {
			continue
		}
		if latest == nil || e.ScheduledDate.After(latest.ScheduledDate) {
			latest = &e
		}
	}
	if latest == nil {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return latest.PlanID, nil
}

func (f *fakeCallRepo) AnyPlanID(_ context.Context) (primitive.ObjectID, error) {
	if len(f.plans) == 0 {
		return primitive.NilObjectID, repository.ErrNotFound
	}
	return f.plans[0].ID, nil
}

func (f *fakeCallRepo) AnyPlanIDFromOtherClients(_ context.Context, excludeClientID primitive.ObjectID) (primitive.ObjectID, error) {
	for _, e := range f.entries {
		if e.ClientID != excludeClientID {
			return e.PlanID, nil
		}
	}
	return primitive.NilObjectID, repository.ErrNotFound
}

// --- User fake ---

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func (f *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	if f.users == nil {
		f.users = make(map[primitive.ObjectID]*domain.User)
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	return user.ID, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) AddClientIDToCoach(_ context.Context, coachID, clientID primitive.ObjectID) error {
	return nil
}

func (f *fakeUserRepo) GetClientsByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) SetCoachForClient(_ context.Context, clientID, coachID primitive.ObjectID) error {
	return nil
}

func (f *fakeUserRepo) UpdateCurrentWeight(_ context.Context, clientID primitive.ObjectID, weight float64) error {
	if u, ok := f.users[clientID]; ok {
		u.CurrentWeight = &weight
	}
	return nil
}

// --- Goal fake ---

type fakeGoalRepo struct {
	goals     map[primitive.ObjectID]*domain.GoalRecord
	updateErr error
}

func (f *fakeGoalRepo) Create(_ context.Context, goal *domain.GoalRecord) (primitive.ObjectID, error) {
	if f.goals == nil {
		f.goals = make(map[primitive.ObjectID]*domain.GoalRecord)
	}
	goal.ID = primitive.NewObjectID()
	f.goals[goal.ID] = goal
	return goal.ID, nil
}

func (f *fakeGoalRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.GoalRecord, error) {
	g, ok := f.goals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return g, nil
}

func (f *fakeGoalRepo) GetByAssignmentID(_ context.Context, assignmentID primitive.ObjectID) ([]domain.GoalRecord, error) {
	var out []domain.GoalRecord
	for _, g := range f.goals {
		if g.AssignmentID == assignmentID {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeGoalRepo) GetPrimaryByAssignmentID(_ context.Context, assignmentID primitive.ObjectID) (*domain.GoalRecord, error) {
	for _, g := range f.goals {
		if g.AssignmentID == assignmentID && g.IsPrimary {
			return g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeGoalRepo) Update(_ context.Context, goal *domain.GoalRecord) error {
	if _, ok := f.goals[goal.ID]; !ok {
		return repository.ErrNotFound
	}
	f.goals[goal.ID] = goal
	return nil
}

func (f *fakeGoalRepo) UpdateCurrentValue(_ context.Context, id primitive.ObjectID, value float64) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	g, ok := f.goals[id]
	if !ok {
		return repository.ErrNotFound
	}
	g.CurrentValue = value
	return nil
}

func (f *fakeGoalRepo) SetPrimary(_ context.Context, assignmentID, id primitive.ObjectID) error {
	target, ok := f.goals[id]
	if !ok || target.AssignmentID != assignmentID {
		return repository.ErrNotFound
	}
	for _, g := range f.goals {
		if g.AssignmentID == assignmentID {
			g.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

// newTestEngine wires an engine over fresh fakes and returns both.
type testStores struct {
	workouts *fakeWorkoutRepo
	meals    *fakeMealRepo
	weighIns *fakeWeighInRepo
	photos   *fakePhotoRepo
	calls    *fakeCallRepo
	users    *fakeUserRepo
}

func newTestEngine() (*Engine, *testStores) {
	stores := &testStores{
		workouts: &fakeWorkoutRepo{},
		meals:    &fakeMealRepo{},
		weighIns: &fakeWeighInRepo{},
		photos:   &fakePhotoRepo{},
		calls:    &fakeCallRepo{},
		users:    &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)},
	}
	eng := NewDefault(Deps{
		Workouts: stores.workouts,
		Meals:    stores.meals,
		WeighIns: stores.weighIns,
		Photos:   stores.photos,
		Calls:    stores.calls,
		Users:    stores.users,
	})
	return eng, stores
}

// window56 builds a plain unpaused window starting at start with today set.
func window56(start, today string) domain.ChallengeWindow {
	a := &domain.ChallengeAssignment{
		StartDate: day(start),
		EndDate:   day(start).AddDate(0, 0, domain.ChallengeLengthDays-1),
	}
	w, err := ResolveWindow(a, day(today))
	if err != nil {
		panic(err)
	}
	return w
}
