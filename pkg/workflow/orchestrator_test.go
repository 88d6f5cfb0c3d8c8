package workflow

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/prompts"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

// fakeGenerator は受け取ったプロンプトを記録し、それを画像として返します。
type fakeGenerator struct {
	mu         sync.Mutex
	prompts    []string
	coverCalls int
	pageCalls  int
	coverErr   error
	pagesErr   error
	release    chan struct{}
	started    chan struct{}

	pagesRelease chan struct{}
	pagesStarted chan struct{}
}

func (g *fakeGenerator) GenerateCover(ctx context.Context, theme, name string, locale domain.Locale) (domain.ImageRef, error) {
	if g.started != nil {
		close(g.started)
	}
	if g.release != nil {
		<-g.release
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.coverCalls++
	p := prompts.BuildCoverPrompt(locale, theme, name)
	g.prompts = append(g.prompts, p)
	if g.coverErr != nil {
		return "", g.coverErr
	}
	return domain.NewImageRef("image/jpeg", []byte(p)), nil
}

func (g *fakeGenerator) GeneratePages(ctx context.Context, theme string, locale domain.Locale) ([]domain.ImageRef, error) {
	if g.pagesStarted != nil {
		close(g.pagesStarted)
	}
	if g.pagesRelease != nil {
		<-g.pagesRelease
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pageCalls++
	ps := prompts.BuildPagePrompts(locale, theme)
	g.prompts = append(g.prompts, ps...)
	if g.pagesErr != nil {
		return nil, g.pagesErr
	}
	refs := make([]domain.ImageRef, len(ps))
	for i, p := range ps {
		refs[i] = domain.NewImageRef("image/jpeg", []byte(p))
	}
	return refs, nil
}

type fakeAssembler struct {
	calls      int
	err        error
	theme      string
	name       string
	pages      int
	dedication publisher.Dedication
	release    chan struct{}
	started    chan struct{}
}

func (a *fakeAssembler) Assemble(ctx context.Context, cover domain.ImageRef, pages []domain.ImageRef, theme, name string, d publisher.Dedication) (string, error) {
	if a.started != nil {
		close(a.started)
	}
	if a.release != nil {
		<-a.release
	}
	a.calls++
	if a.err != nil {
		return "", a.err
	}
	a.theme, a.name, a.pages, a.dedication = theme, name, len(pages), d
	return "out/" + publisher.FileName(name, theme), nil
}

// fakeTranslator はキーの前にロケールを付けて返します。
type fakeTranslator struct {
	mu     sync.Mutex
	locale domain.Locale
}

func (t *fakeTranslator) T(key string, _ ...map[string]any) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.locale) + ":" + key
}

func (t *fakeTranslator) Locale() domain.Locale {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.locale
}

func (t *fakeTranslator) set(l domain.Locale) {
	t.mu.Lock()
	t.locale = l
	t.mu.Unlock()
}

type transitions struct {
	mu    sync.Mutex
	steps []State
}

func (r *transitions) hook(_, to State) {
	r.mu.Lock()
	r.steps = append(r.steps, to)
	r.mu.Unlock()
}

func (r *transitions) list() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.steps...)
}

var validRequest = domain.GenerationRequest{Theme: " Dinosaurs ", Name: "Mia"}

func TestOrchestrator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("表紙の後に5ページを生成して Ready になる", func(t *testing.T) {
		gen := &fakeGenerator{}
		rec := &transitions{}
		o := NewOrchestrator(gen, &fakeAssembler{}, &fakeTranslator{locale: domain.LocaleEN}, WithTransitionHook(rec.hook))

		require.NoError(t, o.Generate(ctx, validRequest))

		assert.Equal(t, []State{StateGeneratingCover, StateGeneratingPages, StateReady}, rec.list())
		require.Len(t, gen.prompts, 1+domain.PageCount)
		assert.True(t, strings.HasPrefix(gen.prompts[0], "Coloring book cover"), "最初の呼び出しは表紙であるべきです")
		for _, p := range gen.prompts {
			assert.Contains(t, p, "Dinosaurs")
			assert.True(t, strings.HasSuffix(p, "white background."))
		}

		snap := o.Snapshot()
		assert.Equal(t, StateReady, snap.State)
		assert.False(t, snap.Busy)
		assert.Empty(t, snap.LoadingMessage)
		assert.Empty(t, snap.Error)
		assert.NotEmpty(t, snap.RunID)
		require.NotNil(t, snap.Images)
		assert.Len(t, snap.Images.Pages, domain.PageCount)
		assert.Equal(t, "Dinosaurs", snap.Theme)
	})

	t.Run("空の入力は状態を変えない", func(t *testing.T) {
		gen := &fakeGenerator{}
		o := NewOrchestrator(gen, &fakeAssembler{}, &fakeTranslator{locale: domain.LocaleEN})

		err := o.Generate(ctx, domain.GenerationRequest{Theme: "   ", Name: "Mia"})
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
		assert.Equal(t, StateIdle, o.Snapshot().State)
		assert.Zero(t, gen.coverCalls)
	})

	t.Run("表紙が失敗したらページは要求しない", func(t *testing.T) {
		gen := &fakeGenerator{coverErr: errors.New("quota")}
		rec := &transitions{}
		o := NewOrchestrator(gen, &fakeAssembler{}, &fakeTranslator{locale: domain.LocaleEN}, WithTransitionHook(rec.hook))

		err := o.Generate(ctx, validRequest)
		assert.Error(t, err)
		assert.Zero(t, gen.pageCalls)
		assert.Equal(t, []State{StateGeneratingCover, StateFailed, StateIdle}, rec.list())

		snap := o.Snapshot()
		assert.Equal(t, "en:error.generation", snap.Error)
		assert.NotContains(t, snap.Error, "quota", "内部エラーの詳細を表示してはいけません")
		assert.Nil(t, snap.Images)
	})

	t.Run("ページが失敗したら以前の画像も残さない", func(t *testing.T) {
		gen := &fakeGenerator{}
		o := NewOrchestrator(gen, &fakeAssembler{}, &fakeTranslator{locale: domain.LocaleEN})
		require.NoError(t, o.Generate(ctx, validRequest))

		gen.pagesErr = errors.New("page 3 failed")
		assert.Error(t, o.Generate(ctx, validRequest))

		snap := o.Snapshot()
		assert.Equal(t, StateIdle, snap.State)
		assert.Nil(t, snap.Images)
		assert.Equal(t, "en:error.generation", snap.Error)
	})

	t.Run("生成中は新しい要求とダウンロードを拒否する", func(t *testing.T) {
		gen := &fakeGenerator{release: make(chan struct{}), started: make(chan struct{})}
		o := NewOrchestrator(gen, &fakeAssembler{}, &fakeTranslator{locale: domain.LocaleEN})

		done, err := o.Start(ctx, validRequest)
		require.NoError(t, err)
		<-gen.started

		snap := o.Snapshot()
		assert.True(t, snap.Busy)
		assert.Equal(t, StateGeneratingCover, snap.State)
		assert.Equal(t, "en:loading.cover", snap.LoadingMessage)

		_, err = o.Start(ctx, validRequest)
		assert.ErrorIs(t, err, ErrBusy)
		_, err = o.Download(ctx)
		assert.ErrorIs(t, err, ErrBusy)

		close(gen.release)
		require.NoError(t, <-done)
		assert.Equal(t, 1, gen.coverCalls)
	})

	t.Run("ページ生成中も新しい要求を拒否する", func(t *testing.T) {
		gen := &fakeGenerator{pagesRelease: make(chan struct{}), pagesStarted: make(chan struct{})}
		o := NewOrchestrator(gen, &fakeAssembler{}, &fakeTranslator{locale: domain.LocaleEN})

		done, err := o.Start(ctx, validRequest)
		require.NoError(t, err)
		<-gen.pagesStarted

		snap := o.Snapshot()
		assert.True(t, snap.Busy)
		assert.Equal(t, StateGeneratingPages, snap.State)
		assert.Equal(t, "en:loading.pages", snap.LoadingMessage)

		_, err = o.Start(ctx, validRequest)
		assert.ErrorIs(t, err, ErrBusy)
		_, err = o.Download(ctx)
		assert.ErrorIs(t, err, ErrBusy)

		close(gen.pagesRelease)
		require.NoError(t, <-done)
		assert.Equal(t, 1, gen.coverCalls)
		assert.Equal(t, 1, gen.pageCalls)
	})

	t.Run("新しい生成を始めたら前の本のテーマと名前を消す", func(t *testing.T) {
		gen := &fakeGenerator{}
		o := NewOrchestrator(gen, &fakeAssembler{}, &fakeTranslator{locale: domain.LocaleEN})
		require.NoError(t, o.Generate(ctx, validRequest))
		require.Equal(t, "Mia", o.Snapshot().Name)

		gen.release = make(chan struct{})
		gen.started = make(chan struct{})
		done, err := o.Start(ctx, domain.GenerationRequest{Theme: "Robots", Name: "Leo"})
		require.NoError(t, err)
		<-gen.started

		snap := o.Snapshot()
		assert.Nil(t, snap.Images)
		assert.Empty(t, snap.Theme)
		assert.Empty(t, snap.Name)

		close(gen.release)
		require.NoError(t, <-done)
		snap = o.Snapshot()
		assert.Equal(t, "Robots", snap.Theme)
		assert.Equal(t, "Leo", snap.Name)
	})

	t.Run("ロケールの切り替えは次の生成から反映される", func(t *testing.T) {
		gen := &fakeGenerator{}
		tr := &fakeTranslator{locale: domain.LocaleEN}
		o := NewOrchestrator(gen, &fakeAssembler{}, tr)
		require.NoError(t, o.Generate(ctx, validRequest))
		before := o.Snapshot().Images

		tr.set(domain.LocaleES)
		assert.Same(t, before, o.Snapshot().Images, "生成済みの画像は変わらないはずです")

		require.NoError(t, o.Generate(ctx, validRequest))
		last := gen.prompts[len(gen.prompts)-1]
		assert.Contains(t, last, "sonriendo")
	})
}

func TestOrchestrator_Download(t *testing.T) {
	ctx := context.Background()

	t.Run("画像がなければ ErrNoImages", func(t *testing.T) {
		asm := &fakeAssembler{}
		o := NewOrchestrator(&fakeGenerator{}, asm, &fakeTranslator{locale: domain.LocaleEN})

		_, err := o.Download(ctx)
		assert.ErrorIs(t, err, ErrNoImages)
		assert.Zero(t, asm.calls)
	})

	t.Run("生成時のテーマと名前で PDF を作る", func(t *testing.T) {
		asm := &fakeAssembler{}
		tr := &fakeTranslator{locale: domain.LocaleEN}
		rec := &transitions{}
		o := NewOrchestrator(&fakeGenerator{}, asm, tr, WithTransitionHook(rec.hook))
		require.NoError(t, o.Generate(ctx, validRequest))

		tr.set(domain.LocaleES)
		path, err := o.Download(ctx)
		require.NoError(t, err)

		assert.Equal(t, "out/mia_dinosaurs_coloring_book.pdf", path)
		assert.Equal(t, domain.PageCount, asm.pages)
		assert.Equal(t, "es:pdf.title", asm.dedication.Title)
		assert.Equal(t, []State{StateGeneratingCover, StateGeneratingPages, StateReady, StateAssemblingDocument, StateReady}, rec.list())
	})

	t.Run("PDF 作成中は新しい要求とダウンロードを拒否する", func(t *testing.T) {
		asm := &fakeAssembler{}
		o := NewOrchestrator(&fakeGenerator{}, asm, &fakeTranslator{locale: domain.LocaleEN})
		require.NoError(t, o.Generate(ctx, validRequest))

		asm.release = make(chan struct{})
		asm.started = make(chan struct{})
		result := make(chan error, 1)
		go func() {
			_, err := o.Download(ctx)
			result <- err
		}()
		<-asm.started

		snap := o.Snapshot()
		assert.True(t, snap.Busy)
		assert.Equal(t, StateAssemblingDocument, snap.State)
		assert.Equal(t, "en:loading.pdf", snap.LoadingMessage)

		_, err := o.Start(ctx, validRequest)
		assert.ErrorIs(t, err, ErrBusy)
		_, err = o.Download(ctx)
		assert.ErrorIs(t, err, ErrBusy)

		close(asm.release)
		require.NoError(t, <-result)
		assert.Equal(t, 1, asm.calls)
		assert.Equal(t, StateReady, o.Snapshot().State)
	})

	t.Run("失敗しても画像を保持して再試行できる", func(t *testing.T) {
		asm := &fakeAssembler{err: errors.New("disk full")}
		o := NewOrchestrator(&fakeGenerator{}, asm, &fakeTranslator{locale: domain.LocaleEN})
		require.NoError(t, o.Generate(ctx, validRequest))

		_, err := o.Download(ctx)
		assert.Error(t, err)

		snap := o.Snapshot()
		assert.Equal(t, StateReady, snap.State)
		assert.Equal(t, "en:error.pdf", snap.Error)
		assert.NotNil(t, snap.Images)

		asm.err = nil
		_, err = o.Download(ctx)
		require.NoError(t, err)
		assert.Empty(t, o.Snapshot().Error)
		assert.Equal(t, 2, asm.calls)
	})
}
