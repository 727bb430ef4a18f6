package playback

import (
	"fmt"

	"github.com/patrickprogramme/cakeplayer/pkg/model"
)

// View est l'instantané affiché par l'UI et envoyé par le serveur.
type View struct {
	StepIndex  int           `json:"stepIndex"`
	StepCount  int           `json:"stepCount"`
	StepTitle  string        `json:"stepTitle"`
	VideoTime  model.Seconds `json:"videoTime"`
	Playing    bool          `json:"isPlaying"`
	Caption    string        `json:"caption"`
	HasCaption bool          `json:"hasCaption"`
	Current    model.Seconds `json:"currentSeconds"`
	Total      model.Seconds `json:"totalSeconds"`
	Percentage float64       `json:"percentage"`
	Clock      string        `json:"clock"`
	// Backward vaut true quand le dernier changement de step allait vers un index inférieur.
	Backward bool `json:"backward"`
	// Seq croît à chaque changement d'état ; une vue de Seq inférieur est périmée.
	Seq uint64 `json:"seq"`
}

// ClockLabel formate "MM:SS / MM:SS".
func ClockLabel(current, total model.Seconds) string {
	return fmt.Sprintf("%s / %s", current.TimeString(), total.TimeString())
}

func (c *Controller) viewLocked() View {
	st := c.state
	idx := c.tl.Index
	current, _ := idx.ToGlobal(st.StepIndex, st.VideoTime)
	total := idx.TotalDuration()
	caption, ok := c.tl.Captions.Active(st.StepIndex, st.VideoTime)

	return View{
		StepIndex:  st.StepIndex,
		StepCount:  idx.Len(),
		StepTitle:  c.tl.title(st.StepIndex),
		VideoTime:  st.VideoTime,
		Playing:    st.Playing,
		Caption:    caption,
		HasCaption: ok,
		Current:    current,
		Total:      total,
		Percentage: idx.Percentage(current),
		Clock:      ClockLabel(current, total),
		Backward:   c.backward,
		Seq:        c.seq,
	}
}
