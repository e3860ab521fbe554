package generate

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"layercanvas/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBase64(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// fakeHorde serves the two job endpoints. The status handler answers with
// the queued responses in order, repeating the last one.
type fakeHorde struct {
	t        *testing.T
	statuses []func(w http.ResponseWriter)
	calls    atomic.Int32
	submit   hordeRequest
	apikey   string
}

func (f *fakeHorde) server() *httptest.Server {
	r := chi.NewRouter()
	r.Post("/generate/async", func(w http.ResponseWriter, req *http.Request) {
		f.apikey = req.Header.Get("apikey")
		require.NoError(f.t, json.NewDecoder(req.Body).Decode(&f.submit))
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{"id": "job-1"})
	})
	r.Get("/generate/status/{id}", func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(f.t, "job-1", chi.URLParam(req, "id"))
		n := int(f.calls.Add(1)) - 1
		n = min(n, len(f.statuses)-1)
		f.statuses[n](w)
	})
	r.Get("/status/models", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("[]"))
	})
	srv := httptest.NewServer(r)
	f.t.Cleanup(srv.Close)
	return srv
}

func pending(w http.ResponseWriter) {
	json.NewEncoder(w).Encode(map[string]any{"done": false, "wait_time": 4})
}

func limited(w http.ResponseWriter) {
	w.WriteHeader(http.StatusTooManyRequests)
}

func done(imgs ...string) func(http.ResponseWriter) {
	return func(w http.ResponseWriter) {
		gens := make([]map[string]string, len(imgs))
		for i, img := range imgs {
			gens[i] = map[string]string{"img": img}
		}
		json.NewEncoder(w).Encode(map[string]any{"done": true, "generations": gens})
	}
}

func fastHorde(url string, opts ...HordeOption) *Horde {
	opts = append([]HordeOption{
		WithPollInterval(time.Millisecond),
		WithBackoff(func(int) time.Duration { return time.Millisecond }),
	}, opts...)
	return NewHorde(url, "", opts...)
}

func TestHordeSubmitsAndPolls(t *testing.T) {
	f := &fakeHorde{t: t}
	f.statuses = []func(http.ResponseWriter){pending, pending, done(pngBase64(t, 8, 4))}
	srv := f.server()

	h := fastHorde(srv.URL)
	var msgs []string
	h.OnStatus = func(m string) { msgs = append(msgs, m) }

	req := NewRequest("a lighthouse")
	req.NegativePrompt = "blurry"
	req.Size = Size{512, 512}
	imgs, err := h.Generate(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, imgs, 1)
	assert.Equal(t, image.Rect(0, 0, 8, 4), imgs[0].Bounds())

	assert.Equal(t, AnonymousKey, f.apikey)
	assert.Equal(t, "a lighthouse ### blurry", f.submit.Prompt)
	assert.Equal(t, 512, f.submit.Params.Width)
	assert.Equal(t, "k_euler_a", f.submit.Params.SamplerName)
	assert.Empty(t, f.submit.Params.Seed)
	assert.EqualValues(t, 3, f.calls.Load())
	assert.NotEmpty(t, msgs)
}

func TestHordeRetriesRateLimit(t *testing.T) {
	f := &fakeHorde{t: t}
	f.statuses = []func(http.ResponseWriter){limited, limited, done(pngBase64(t, 2, 2))}
	srv := f.server()

	imgs, err := fastHorde(srv.URL, WithMaxRetries(2)).Generate(context.Background(), NewRequest("cat"))
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
}

func TestHordeGivesUpAfterMaxRetries(t *testing.T) {
	f := &fakeHorde{t: t}
	f.statuses = []func(http.ResponseWriter){limited}
	srv := f.server()

	_, err := fastHorde(srv.URL, WithMaxRetries(3)).Generate(context.Background(), NewRequest("cat"))
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.EqualValues(t, 4, f.calls.Load())
}

func TestHordeNoImages(t *testing.T) {
	f := &fakeHorde{t: t}
	f.statuses = []func(http.ResponseWriter){done()}
	srv := f.server()

	_, err := fastHorde(srv.URL).Generate(context.Background(), NewRequest("cat"))
	assert.ErrorIs(t, err, ErrNoImages)
}

func TestHordeSkipsUndecodableImages(t *testing.T) {
	f := &fakeHorde{t: t}
	f.statuses = []func(http.ResponseWriter){done("!!!", base64.StdEncoding.EncodeToString([]byte("text")), pngBase64(t, 3, 3))}
	srv := f.server()

	imgs, err := fastHorde(srv.URL).Generate(context.Background(), NewRequest("cat"))
	require.NoError(t, err)
	assert.Len(t, imgs, 1)
}

func TestHordeSubmitErrors(t *testing.T) {
	r := chi.NewRouter()
	var status atomic.Int32
	r.Post("/generate/async", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(int(status.Load()))
		w.Write([]byte(`{"message": "prompt rejected"}`))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	status.Store(http.StatusTooManyRequests)
	_, err := fastHorde(srv.URL).Generate(context.Background(), NewRequest("cat"))
	assert.ErrorIs(t, err, ErrRateLimited)

	status.Store(http.StatusBadRequest)
	_, err = fastHorde(srv.URL).Generate(context.Background(), NewRequest("cat"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt rejected")
}

func TestHordeCancel(t *testing.T) {
	f := &fakeHorde{t: t}
	f.statuses = []func(http.ResponseWriter){pending}
	srv := f.server()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := fastHorde(srv.URL).Generate(ctx, NewRequest("cat"))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHordeCheck(t *testing.T) {
	f := &fakeHorde{t: t}
	srv := f.server()
	assert.NoError(t, fastHorde(srv.URL).Check(context.Background()))
}

func TestEmptyPromptRejected(t *testing.T) {
	_, err := NewLocal().Generate(context.Background(), NewRequest("  "))
	assert.ErrorIs(t, err, ErrEmptyPrompt)
	_, err = NewHorde("http://127.0.0.1:1", "").Generate(context.Background(), NewRequest(""))
	assert.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestLocalIsDeterministic(t *testing.T) {
	req := NewRequest("sunset over water")
	req.Size = Size{32, 16}
	req.Count = 2

	a, err := NewLocal().Generate(context.Background(), req)
	require.NoError(t, err)
	b, err := NewLocal().Generate(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, a, 2)
	assert.Equal(t, image.Rect(0, 0, 32, 16), a[0].Bounds())
	assert.Equal(t, a[0], b[0])
	assert.NotEqual(t, a[0], a[1])
}

func TestParseSize(t *testing.T) {
	s, err := ParseSize("1024X1792")
	require.NoError(t, err)
	assert.Equal(t, Size{1024, 1792}, s)
	assert.Equal(t, "1024x1792", s.String())

	for _, bad := range []string{"", "512", "axb", "0x10"} {
		_, err := ParseSize(bad)
		assert.Error(t, err, bad)
	}
}

func TestNewPicksService(t *testing.T) {
	cfg := config.Default().Generation
	g, err := New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, ServiceStableHorde, g.Name())

	cfg.Service = "local"
	g, err = New(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, ServiceLocal, g.Name())

	cfg.Service = "dalle"
	_, err = New(cfg, nil)
	assert.ErrorIs(t, err, ErrUnknownService)
}

func TestFileName(t *testing.T) {
	at := time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "ai_generated_20240309_140507_2.png", FileName(at, 2))
}

func TestStore(t *testing.T) {
	s, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	id1, err := s.Add(ctx, Entry{Prompt: "first", Service: "local", Path: "/a.png", Width: 8, Height: 8, CreatedAt: base})
	require.NoError(t, err)
	id2, err := s.Add(ctx, Entry{Prompt: "second", NegativePrompt: "dark", Service: "stablehorde", Path: "/b.png", Width: 4, Height: 2, CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, id2, all[0].ID)
	assert.Equal(t, "dark", all[0].NegativePrompt)
	assert.True(t, all[0].CreatedAt.Equal(base.Add(time.Minute)))

	one, err := s.List(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)

	e, err := s.Get(ctx, id1)
	require.NoError(t, err)
	assert.Equal(t, "first", e.Prompt)

	require.NoError(t, s.Delete(ctx, id1))
	assert.ErrorIs(t, s.Delete(ctx, id1), ErrNotFound)
	_, err = s.Get(ctx, id1)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Clear(ctx))
	all, err = s.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestOpenStoreOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "gen.db")
	s, err := OpenStore(path)
	require.NoError(t, err)
	_, err = s.Add(context.Background(), Entry{Prompt: "p", Service: "local", Path: "x.png", Width: 1, Height: 1})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenStore(path)
	require.NoError(t, err)
	defer s.Close()
	all, err := s.List(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

type stubGenerator struct {
	imgs []image.Image
	err  error
}

func (g stubGenerator) Name() string { return "stub" }

func (g stubGenerator) Generate(context.Context, Request) ([]image.Image, error) {
	return g.imgs, g.err
}

func TestJobSavesAndRecords(t *testing.T) {
	dir := t.TempDir()
	store, err := OpenStore(":memory:")
	require.NoError(t, err)
	defer store.Close()

	img := image.NewRGBA(image.Rect(0, 0, 6, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	at := time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)
	job := &Job{
		Generator: stubGenerator{imgs: []image.Image{img, img}},
		OutputDir: dir,
		Store:     store,
		Now:       func() time.Time { return at },
	}

	res, err := job.Run(context.Background(), NewRequest("two squares"))
	require.NoError(t, err)
	require.Len(t, res.Paths, 2)
	assert.Equal(t, filepath.Join(dir, "ai_generated_20240501_083000_1.png"), res.Paths[0])
	for _, p := range res.Paths {
		_, err := os.Stat(p)
		require.NoError(t, err)
	}

	entries, err := store.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "stub", entries[0].Service)
	assert.Equal(t, 6, entries[0].Width)
}

func TestJobPropagatesGeneratorError(t *testing.T) {
	job := &Job{Generator: stubGenerator{err: ErrNoImages}, OutputDir: t.TempDir()}
	_, err := job.Run(context.Background(), NewRequest("x"))
	assert.ErrorIs(t, err, ErrNoImages)
}
