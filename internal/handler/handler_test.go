package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gympoint/internal/auth"
	"gympoint/internal/checkin"
	"gympoint/internal/enrollment"
	"gympoint/internal/student"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeEnrollRepo marks students as enrolled or not.
type fakeEnrollRepo struct {
	active map[int64]bool
}

func (f *fakeEnrollRepo) FindActive(_ context.Context, studentID int64, now time.Time) (*enrollment.Enrollment, error) {
	if f.active[studentID] {
		return &enrollment.Enrollment{ID: 1, StudentID: studentID, EndDate: now.AddDate(0, 0, 1)}, nil
	}
	return nil, nil
}

// fakeCheckinRepo returns configured counts so policy outcomes are
// deterministic regardless of wall clock.
type fakeCheckinRepo struct {
	today    int
	week     int
	recent   []checkin.Checkin
	inserted []checkin.Checkin
}

func (f *fakeCheckinRepo) Insert(_ context.Context, c checkin.Checkin) (checkin.Checkin, error) {
	f.inserted = append(f.inserted, c)
	return c, nil
}

func (f *fakeCheckinRepo) CountSince(_ context.Context, _ int64, _ time.Time) (int, error) {
	return f.today, nil
}

func (f *fakeCheckinRepo) CountInRange(_ context.Context, _ int64, _, _ time.Time) (int, error) {
	return f.week, nil
}

func (f *fakeCheckinRepo) ListRecent(_ context.Context, _ int64, limit int) ([]checkin.Checkin, error) {
	if len(f.recent) > limit {
		return f.recent[:limit], nil
	}
	return f.recent, nil
}

// memStudentRepo is an in-memory student store.
type memStudentRepo struct {
	seq      int64
	students map[int64]student.Student
}

func newMemStudentRepo() *memStudentRepo {
	return &memStudentRepo{students: make(map[int64]student.Student)}
}

func (r *memStudentRepo) Create(_ context.Context, s *student.Student) error {
	r.seq++
	s.ID = r.seq
	r.students[s.ID] = *s
	return nil
}

func (r *memStudentRepo) GetByID(_ context.Context, id int64) (*student.Student, error) {
	if s, ok := r.students[id]; ok {
		return &s, nil
	}
	return nil, nil
}

func (r *memStudentRepo) GetByEmail(_ context.Context, email string) (*student.Student, error) {
	for _, s := range r.students {
		if s.Email == email {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

func (r *memStudentRepo) Update(_ context.Context, s *student.Student) error {
	r.students[s.ID] = *s
	return nil
}

type fixture struct {
	router   *gin.Engine
	enroll   *fakeEnrollRepo
	checkins *fakeCheckinRepo
	students *memStudentRepo
}

func newFixture(t *testing.T, authRequired bool) *fixture {
	t.Helper()

	enroll := &fakeEnrollRepo{active: make(map[int64]bool)}
	checkins := &fakeCheckinRepo{}
	students := newMemStudentRepo()

	logger := zerolog.Nop()
	policy := checkin.NewPolicy(enroll, checkins, time.Sunday)
	checkinSvc := checkin.NewService(checkins, enroll, policy, nil, logger)
	studentSvc := student.NewService(students, logger)

	creds, err := auth.NewCredentials("admin@gympoint.com", "123456")
	require.NoError(t, err)

	h := New(studentSvc, checkinSvc, creds, nil, nil, nil, logger,
		"gympoint-test", "test-signing-key", time.Hour)

	r := gin.New()
	r.POST("/sessions", h.CreateSession)
	r.GET("/stats/today", h.StatsToday)
	r.GET("/students/:id/checkins", h.ListCheckins)
	r.POST("/students/:id/checkins", h.CreateCheckin)
	admin := r.Group("/", auth.AdminAuth("test-signing-key", "gympoint-test", authRequired))
	admin.POST("/students", h.CreateStudent)
	admin.PUT("/students/:id", h.UpdateStudent)

	return &fixture{router: r, enroll: enroll, checkins: checkins, students: students}
}

func (f *fixture) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestCheckinValidation(t *testing.T) {
	f := newFixture(t, false)
	for _, path := range []string{"/students/abc/checkins", "/students/-1/checkins", "/students/0/checkins"} {
		for _, method := range []string{http.MethodGet, http.MethodPost} {
			w := f.do(method, path, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", method, path)
			assert.Equal(t, "Validation fails", decode(t, w)["error"])
		}
	}
}

func TestListCheckins(t *testing.T) {
	t.Run("not enrolled", func(t *testing.T) {
		f := newFixture(t, false)
		w := f.do(http.MethodGet, "/students/1/checkins", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Student is not enrolled", decode(t, w)["error"])
	})

	t.Run("enrolled student gets newest twenty", func(t *testing.T) {
		f := newFixture(t, false)
		f.enroll.active[1] = true
		now := time.Now()
		for i := 0; i < 25; i++ {
			f.checkins.recent = append(f.checkins.recent, checkin.Checkin{
				StudentID: 1,
				CreatedAt: now.Add(-time.Duration(i) * time.Hour),
			})
		}
		// ListRecent applies the cap as the real repository does
		w := f.do(http.MethodGet, "/students/1/checkins", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var list []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
		assert.Len(t, list, 20)
		assert.Contains(t, list[0], "studentId")
		assert.Contains(t, list[0], "createdAt")
	})

	t.Run("enrolled student with no checkins gets empty array", func(t *testing.T) {
		f := newFixture(t, false)
		f.enroll.active[1] = true
		w := f.do(http.MethodGet, "/students/1/checkins", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "[]", w.Body.String())
	})
}

func TestCreateCheckin(t *testing.T) {
	t.Run("allowed", func(t *testing.T) {
		f := newFixture(t, false)
		f.enroll.active[7] = true
		w := f.do(http.MethodPost, "/students/7/checkins", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(7), body["studentId"])
		assert.NotEmpty(t, body["createdAt"])
		assert.Len(t, f.checkins.inserted, 1)
	})

	t.Run("not enrolled", func(t *testing.T) {
		f := newFixture(t, false)
		w := f.do(http.MethodPost, "/students/7/checkins", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Student is not enrolled", decode(t, w)["error"])
		assert.Empty(t, f.checkins.inserted)
	})

	t.Run("already checked in today", func(t *testing.T) {
		f := newFixture(t, false)
		f.enroll.active[7] = true
		f.checkins.today = 1
		w := f.do(http.MethodPost, "/students/7/checkins", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Already checked in today", decode(t, w)["error"])
		assert.Empty(t, f.checkins.inserted)
	})

	t.Run("weekly limit reached", func(t *testing.T) {
		f := newFixture(t, false)
		f.enroll.active[7] = true
		f.checkins.week = 5
		w := f.do(http.MethodPost, "/students/7/checkins", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Checkins limit reached", decode(t, w)["error"])
		assert.Empty(t, f.checkins.inserted)
	})
}

func TestCreateStudent(t *testing.T) {
	valid := gin.H{"name": "Ana", "email": "ana@x.com", "age": 30, "weight": 60, "height": 1.7}

	t.Run("success omits weight and height", func(t *testing.T) {
		f := newFixture(t, false)
		w := f.do(http.MethodPost, "/students", valid)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "Ana", body["name"])
		assert.Equal(t, "ana@x.com", body["email"])
		assert.Equal(t, float64(30), body["age"])
		assert.NotZero(t, body["id"])
		assert.NotContains(t, body, "weight")
		assert.NotContains(t, body, "height")
	})

	t.Run("validation failures", func(t *testing.T) {
		f := newFixture(t, false)
		bad := []gin.H{
			{"email": "ana@x.com", "age": 30, "weight": 60, "height": 1.7},                   // missing name
			{"name": "Ana", "email": "not-an-email", "age": 30, "weight": 60, "height": 1.7}, // bad email
			{"name": "Ana", "email": "ana@x.com", "age": -3, "weight": 60, "height": 1.7},    // negative age
			{"name": "Ana", "email": "ana@x.com", "age": 30, "weight": 0, "height": 1.7},     // zero weight
			{"name": "Ana", "email": "ana@x.com", "age": 30, "weight": 60},                   // missing height
		}
		for i, body := range bad {
			w := f.do(http.MethodPost, "/students", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, "case %d", i)
			assert.Equal(t, "Validation fails", decode(t, w)["error"], "case %d", i)
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		f := newFixture(t, false)
		require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/students", valid).Code)
		w := f.do(http.MethodPost, "/students", valid)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Student already exists.", decode(t, w)["error"])
		assert.Len(t, f.students.students, 1)
	})
}

func TestUpdateStudent(t *testing.T) {
	seed := func(t *testing.T, f *fixture) int64 {
		w := f.do(http.MethodPost, "/students", gin.H{"name": "Ana", "email": "ana@x.com", "age": 30, "weight": 60, "height": 1.7})
		require.Equal(t, http.StatusOK, w.Code)
		return int64(decode(t, w)["id"].(float64))
	}

	t.Run("unknown id", func(t *testing.T) {
		f := newFixture(t, false)
		w := f.do(http.MethodPut, "/students/42", gin.H{"name": "Someone"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Student not found", decode(t, w)["error"])
	})

	t.Run("partial patch returns the full record", func(t *testing.T) {
		f := newFixture(t, false)
		id := seed(t, f)
		w := f.do(http.MethodPut, "/students/1", gin.H{"weight": 62.5})
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(id), body["id"])
		assert.Equal(t, "Ana", body["name"])
		assert.Equal(t, "ana@x.com", body["email"])
		assert.Equal(t, 62.5, body["weight"])
		assert.Equal(t, 1.7, body["height"])
	})

	t.Run("own email is not a conflict", func(t *testing.T) {
		f := newFixture(t, false)
		seed(t, f)
		w := f.do(http.MethodPut, "/students/1", gin.H{"email": "ana@x.com"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("taken email", func(t *testing.T) {
		f := newFixture(t, false)
		seed(t, f)
		require.Equal(t, http.StatusOK, f.do(http.MethodPost, "/students", gin.H{"name": "Bia", "email": "bia@x.com", "age": 25, "weight": 55, "height": 1.6}).Code)
		w := f.do(http.MethodPut, "/students/1", gin.H{"email": "bia@x.com"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "A student with this email already exists", decode(t, w)["error"])
	})

	t.Run("empty body is a no-op patch", func(t *testing.T) {
		f := newFixture(t, false)
		id := seed(t, f)
		w := f.do(http.MethodPut, "/students/1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, float64(id), body["id"])
		assert.Equal(t, "Ana", body["name"])
		assert.Equal(t, "ana@x.com", body["email"])
		assert.Equal(t, float64(30), body["age"])
		assert.Equal(t, float64(60), body["weight"])
		assert.Equal(t, 1.7, body["height"])
	})

	t.Run("malformed email in patch", func(t *testing.T) {
		f := newFixture(t, false)
		seed(t, f)
		w := f.do(http.MethodPut, "/students/1", gin.H{"email": "nope"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Validation fails", decode(t, w)["error"])
	})
}

func TestSessions(t *testing.T) {
	t.Run("bad credentials", func(t *testing.T) {
		f := newFixture(t, false)
		w := f.do(http.MethodPost, "/sessions", gin.H{"email": "admin@gympoint.com", "password": "wrong"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("good credentials yield a token accepted by the middleware", func(t *testing.T) {
		f := newFixture(t, true)
		w := f.do(http.MethodPost, "/sessions", gin.H{"email": "admin@gympoint.com", "password": "123456"})
		require.Equal(t, http.StatusOK, w.Code)
		token, _ := decode(t, w)["token"].(string)
		require.NotEmpty(t, token)

		// Without the token the admin surface is closed.
		denied := f.do(http.MethodPost, "/students", gin.H{"name": "Ana", "email": "ana@x.com", "age": 30, "weight": 60, "height": 1.7})
		assert.Equal(t, http.StatusUnauthorized, denied.Code)

		var buf bytes.Buffer
		_ = json.NewEncoder(&buf).Encode(gin.H{"name": "Ana", "email": "ana@x.com", "age": 30, "weight": 60, "height": 1.7})
		req := httptest.NewRequest(http.MethodPost, "/students", &buf)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestStatsTodayWithoutTracker(t *testing.T) {
	f := newFixture(t, false)
	w := f.do(http.MethodGet, "/stats/today", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
