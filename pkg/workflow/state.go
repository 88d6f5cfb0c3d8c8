package workflow

// State はオーケストレーターの状態です。
type State string

const (
	StateIdle               State = "idle"
	StateGeneratingCover    State = "generating_cover"
	StateGeneratingPages    State = "generating_pages"
	StateReady              State = "ready"
	StateAssemblingDocument State = "assembling_document"
	StateFailed             State = "failed"
)

// Busy は操作を受け付けられない状態かどうかを返します。
func (s State) Busy() bool {
	switch s {
	case StateGeneratingCover, StateGeneratingPages, StateAssemblingDocument:
		return true
	}
	return false
}

func (s State) String() string {
	return string(s)
}
