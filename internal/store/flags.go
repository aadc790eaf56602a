package store

import "context"

// Marker value for one-time permission flags. The value carries no meaning
// beyond presence; it survives reinstalls of the daemon but not a wiped
// data dir, which is the intended consent lifetime.
const flagGranted = "granted"

// StorageConsentGranted reports whether the user has already consented to
// on-device storage of queued actions. Gate checked before every enqueue.
func (s *Store) StorageConsentGranted(ctx context.Context) bool {
	raw, ok := s.getRaw(ctx, KeyStorageConsent)
	return ok && string(raw) == flagGranted
}

// GrantStorageConsent records the one-time consent so later sessions skip
// the prompt.
func (s *Store) GrantStorageConsent(ctx context.Context) error {
	return s.putRaw(ctx, KeyStorageConsent, []byte(flagGranted))
}

// RevokeStorageConsent clears the consent marker.
func (s *Store) RevokeStorageConsent(ctx context.Context) error {
	return s.Delete(ctx, KeyStorageConsent)
}

// LocationPromptShown reports whether the location permission explainer was
// already shown in a previous session.
func (s *Store) LocationPromptShown(ctx context.Context) bool {
	_, ok := s.getRaw(ctx, KeyLocationPromptShown)
	return ok
}

func (s *Store) MarkLocationPromptShown(ctx context.Context) error {
	return s.putRaw(ctx, KeyLocationPromptShown, []byte(flagGranted))
}

// CameraPromptAcked reports whether the camera-access explainer in the
// share flow was acknowledged.
func (s *Store) CameraPromptAcked(ctx context.Context) bool {
	_, ok := s.getRaw(ctx, KeyCameraPromptAck)
	return ok
}

func (s *Store) AckCameraPrompt(ctx context.Context) error {
	return s.putRaw(ctx, KeyCameraPromptAck, []byte(flagGranted))
}
