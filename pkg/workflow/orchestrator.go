package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shouni/go-coloring-kit/pkg/domain"
	"github.com/shouni/go-coloring-kit/pkg/publisher"
)

var (
	// ErrBusy は生成または PDF 作成の実行中に新しい操作を要求したときに返されます。
	ErrBusy = errors.New("another operation is in progress")
	// ErrNoImages は画像が揃う前にダウンロードを要求したときに返されます。
	ErrNoImages = errors.New("no generated images")
)

// TransitionHook は状態遷移のたびに呼ばれます。ロック中に呼ばれるので Orchestrator のメソッドを呼んではいけません。
type TransitionHook func(from, to State)

// Snapshot は表示層に渡す状態のコピーです。
type Snapshot struct {
	RunID          string                  `json:"run_id,omitempty"`
	State          State                   `json:"state"`
	Busy           bool                    `json:"busy"`
	LoadingMessage string                  `json:"loading_message,omitempty"`
	Error          string                  `json:"error,omitempty"`
	Images         *domain.GeneratedImages `json:"-"`
	Theme          string                  `json:"theme,omitempty"`
	Name           string                  `json:"name,omitempty"`
}

// Orchestrator は表紙 → ページ → PDF の流れを状態機械として管理します。
// 同時に実行できるフローは1つだけです。
type Orchestrator struct {
	generator ImageGenerator
	assembler DocumentAssembler
	tr        Translator
	hook      TransitionHook

	mu      sync.Mutex
	state   State
	loading string
	errMsg  string
	images  *domain.GeneratedImages
	request domain.GenerationRequest
	runID   string
}

// Option は Orchestrator の設定を変更します。
type Option func(*Orchestrator)

// WithTransitionHook は状態遷移を観測するフックを登録します。
func WithTransitionHook(h TransitionHook) Option {
	return func(o *Orchestrator) {
		o.hook = h
	}
}

// NewOrchestrator は Idle 状態の Orchestrator を生成します。
func NewOrchestrator(gen ImageGenerator, asm DocumentAssembler, tr Translator, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		generator: gen,
		assembler: asm,
		tr:        tr,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start は入力を検証して実行枠を確保し、生成をバックグラウンドで開始します。
// 返されるチャネルには生成の結果が1回だけ送られます。
func (o *Orchestrator) Start(ctx context.Context, req domain.GenerationRequest) (<-chan error, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	o.mu.Lock()
	if o.state.Busy() {
		o.mu.Unlock()
		return nil, ErrBusy
	}
	o.runID = uuid.NewString()
	o.images = nil
	o.request = domain.GenerationRequest{}
	o.errMsg = ""
	o.transition(StateGeneratingCover)
	o.loading = o.tr.T("loading.cover")
	locale := o.tr.Locale()
	runID := o.runID
	o.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- o.run(ctx, runID, req, locale)
	}()
	return done, nil
}

// Generate は Start して完了まで待ちます。
func (o *Orchestrator) Generate(ctx context.Context, req domain.GenerationRequest) error {
	done, err := o.Start(ctx, req)
	if err != nil {
		return err
	}
	return <-done
}

func (o *Orchestrator) run(ctx context.Context, runID string, req domain.GenerationRequest, locale domain.Locale) error {
	logger := slog.With("run_id", runID, "locale", locale)
	logger.Info("ぬりえ本の生成を開始します", "theme", req.Theme)

	cover, err := o.generator.GenerateCover(ctx, req.Theme, req.Name, locale)
	if err != nil {
		return o.failGeneration(logger, err)
	}

	o.mu.Lock()
	o.transition(StateGeneratingPages)
	o.loading = o.tr.T("loading.pages")
	o.mu.Unlock()

	pages, err := o.generator.GeneratePages(ctx, req.Theme, locale)
	if err != nil {
		return o.failGeneration(logger, err)
	}

	images, err := domain.NewGeneratedImages(cover, pages)
	if err != nil {
		return o.failGeneration(logger, err)
	}

	o.mu.Lock()
	o.images = images
	o.request = req
	o.loading = ""
	o.transition(StateReady)
	o.mu.Unlock()

	logger.Info("ぬりえ本の生成が完了しました", "pages", len(images.Pages))
	return nil
}

func (o *Orchestrator) failGeneration(logger *slog.Logger, cause error) error {
	logger.Error("ぬりえ本の生成に失敗しました", "error", cause)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.transition(StateFailed)
	o.errMsg = o.tr.T("error.generation")
	o.images = nil
	o.request = domain.GenerationRequest{}
	o.loading = ""
	o.transition(StateIdle)
	return fmt.Errorf("ぬりえ本の生成に失敗しました: %w", cause)
}

// Download は生成済みの画像から PDF を組み立て、保存先のパスを返します。
// 失敗しても画像は保持されるので、再生成せずに再試行できます。
func (o *Orchestrator) Download(ctx context.Context) (string, error) {
	o.mu.Lock()
	if o.state.Busy() {
		o.mu.Unlock()
		return "", ErrBusy
	}
	if o.images == nil {
		o.mu.Unlock()
		return "", ErrNoImages
	}
	images := o.images
	req := o.request
	runID := o.runID
	o.errMsg = ""
	o.transition(StateAssemblingDocument)
	o.loading = o.tr.T("loading.pdf")
	dedication := publisher.DedicationFrom(o.tr)
	o.mu.Unlock()

	logger := slog.With("run_id", runID)
	path, err := o.assembler.Assemble(ctx, images.Cover, images.Pages, req.Theme, req.Name, dedication)

	o.mu.Lock()
	defer o.mu.Unlock()
	o.loading = ""
	if err != nil {
		logger.Error("PDF の作成に失敗しました", "error", err)
		o.transition(StateFailed)
		o.errMsg = o.tr.T("error.pdf")
		o.transition(StateReady)
		return "", fmt.Errorf("PDF の作成に失敗しました: %w", err)
	}
	o.transition(StateReady)
	logger.Info("PDF を作成しました", "path", path)
	return path, nil
}

// Snapshot は現在の状態のコピーを返します。
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Snapshot{
		RunID:          o.runID,
		State:          o.state,
		Busy:           o.state.Busy(),
		LoadingMessage: o.loading,
		Error:          o.errMsg,
		Images:         o.images,
		Theme:          o.request.Theme,
		Name:           o.request.Name,
	}
}

// transition は o.mu を保持した状態で呼び出すこと。
func (o *Orchestrator) transition(to State) {
	from := o.state
	o.state = to
	slog.Debug("状態遷移", "from", from, "to", to, "run_id", o.runID)
	if o.hook != nil {
		o.hook(from, to)
	}
}
