package session

import (
	"consentmgr/internal/consent/models"
)

// PurposeView is one purpose with the visitor's decision and display hints.
type PurposeView struct {
	models.Purpose
	Status   models.Status   `json:"status"`
	Checked  bool            `json:"checked"`
	Category models.Category `json:"category"`
	Icon     string          `json:"icon"`
}

// View is an immutable snapshot of everything a surface renders.
type View struct {
	State           State         `json:"state"`
	Loading         bool          `json:"loading"`
	VisitorID       string        `json:"visitor_id,omitempty"`
	Purposes        []PurposeView `json:"purposes"`
	Stats           *models.Stats `json:"stats,omitempty"`
	BannerVisible   bool          `json:"banner_visible"`
	PreferencesOpen bool          `json:"preferences_open"`
	Error           string        `json:"error,omitempty"`
	InlineError     string        `json:"inline_error,omitempty"`
}

// View snapshots the controller. The result shares no memory with it.
func (c *Controller) View() View {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v := View{
		State:           c.state,
		Loading:         c.state == StateLoading || c.state == StateUninitialized,
		BannerVisible:   c.bannerVisible,
		PreferencesOpen: c.preferencesOpen,
		Error:           c.fatalErr,
		InlineError:     c.inlineErr,
		Purposes:        make([]PurposeView, 0, len(c.purposes)),
	}
	if !c.visitorID.IsNil() {
		v.VisitorID = c.visitorID.String()
	}
	if c.stats != nil {
		s := *c.stats
		s.ByPurpose = append([]models.PurposeStat(nil), c.stats.ByPurpose...)
		v.Stats = &s
	}
	for _, p := range c.purposes {
		status := c.consents.Status(p.ID)
		category := p.Category()
		v.Purposes = append(v.Purposes, PurposeView{
			Purpose:  p,
			Status:   status,
			Checked:  status.Checked(),
			Category: category,
			Icon:     category.Icon(),
		})
	}
	return v
}
