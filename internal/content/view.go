package content

import "github.com/ButyrinIA/spacetraveling/internal/models"

type ViewState int

const (
	// ViewLoading: the page is being generated on demand.
	ViewLoading ViewState = iota
	ViewReady
	ViewNotFound
)

func (s ViewState) String() string {
	switch s {
	case ViewLoading:
		return "loading"
	case ViewReady:
		return "ready"
	case ViewNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// PostView is what the detail page renders. Post and ReadTime are set only
// when State is ViewReady.
type PostView struct {
	State    ViewState
	Post     *models.Post
	ReadTime int
}

func Loading() PostView {
	return PostView{State: ViewLoading}
}

func NotFound() PostView {
	return PostView{State: ViewNotFound}
}

func Ready(post models.Post) PostView {
	return PostView{
		State:    ViewReady,
		Post:     &post,
		ReadTime: EstimateReadTime(post),
	}
}
