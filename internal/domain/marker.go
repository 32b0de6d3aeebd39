package domain

import "time"

// MapMarker is a user-created pin at a geographic coordinate with an attached photo.
type MapMarker struct {
	ID         int64     `json:"id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	PhotoRef   string    `json:"photo_ref"`
	Title      string    `json:"title,omitempty"`
	Note       string    `json:"note,omitempty"`
	UserID     *int64    `json:"user_id,omitempty"`
	MushroomID *int64    `json:"mushroom_id,omitempty"`
	IsPrivate  bool      `json:"is_private"`
	Timestamp  time.Time `json:"timestamp"`
}

// OwnedBy reports whether the marker was created by userID.
func (m *MapMarker) OwnedBy(userID int64) bool {
	return m.UserID != nil && *m.UserID == userID
}

// VisibleTo reports whether a viewer with the given subscription status may see the marker.
func (m *MapMarker) VisibleTo(viewerSubscribed bool) bool {
	return viewerSubscribed || !m.IsPrivate
}

// VisibleMarkers returns the markers a viewer may see. Subscribed viewers get
// the input unchanged; everyone else gets only public markers. Order is preserved.
func VisibleMarkers(all []MapMarker, viewerSubscribed bool) []MapMarker {
	if viewerSubscribed {
		return all
	}
	visible := make([]MapMarker, 0, len(all))
	for _, m := range all {
		if !m.IsPrivate {
			visible = append(visible, m)
		}
	}
	return visible
}

// EffectivePrivacy is the privacy flag a marker is actually stored with.
// Only creators holding an active subscription may create private markers.
func EffectivePrivacy(requested, creatorSubscribed bool) bool {
	return requested && creatorSubscribed
}
