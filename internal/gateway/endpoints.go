package gateway

import "fmt"

// Endpoint paths are built here and nowhere else; the backend contract has
// shifted before, so a path change must touch exactly one file.

func Voices() string              { return "/voices" }
func Voice(voiceID string) string { return "/voices/" + voiceID }

func Stories() string                  { return "/stories" }
func StoryCover(storyID string) string { return fmt.Sprintf("/stories/%s/cover", storyID) }

// NarrationAudio addresses the generated narration for (voice, story). POST
// triggers generation, HEAD checks existence.
func NarrationAudio(voiceID, storyID string) string {
	return fmt.Sprintf("/voices/%s/stories/%s/audio", voiceID, storyID)
}

// NarrationDownload resolves to the downloadable MP3.
func NarrationDownload(voiceID, storyID string) string {
	return NarrationAudio(voiceID, storyID) + "?redirect=true"
}

func AuthLogin() string              { return "/auth/login" }
func AuthRegister() string           { return "/auth/register" }
func AuthRefresh() string            { return "/auth/refresh" }
func AuthMe() string                 { return "/auth/me" }
func AuthResetPassword() string      { return "/auth/reset-password" }
func AuthResendConfirmation() string { return "/auth/resend-confirmation" }
