package apierr

// User-facing messages keyed by code and locale. UIs substitute these for
// raw codes; unknown locales fall back to English.

var messages = map[string]map[Code]string{
	"en": {
		CodeOffline:            "You appear to be offline. We'll retry when you're back online.",
		CodeTimeout:            "The request took too long. Please try again.",
		CodeAuthError:          "Your session has expired. Please sign in again.",
		CodeAPIError:           "Something went wrong on our side. Please try again.",
		CodeStorageError:       "Couldn't save data on this device.",
		CodeDownloadError:      "The audio download failed. Please try again.",
		CodeDownloadCancelled:  "Download cancelled.",
		CodeGenerationTimeout:  "Narration is taking longer than expected. Please try again shortly.",
		CodeMissingVoiceID:     "No voice set up yet. Record a voice sample first.",
		CodeCloneError:         "Voice setup needs an internet connection.",
		CodeVerificationError:  "Couldn't verify your voice with the server.",
		CodeQueueProcessingErr: "Some pending changes couldn't be synced yet.",
	},
	"es": {
		CodeOffline:            "Parece que no tienes conexión. Lo reintentaremos cuando vuelvas a estar en línea.",
		CodeTimeout:            "La solicitud tardó demasiado. Inténtalo de nuevo.",
		CodeAuthError:          "Tu sesión ha caducado. Inicia sesión de nuevo.",
		CodeAPIError:           "Algo salió mal. Inténtalo de nuevo.",
		CodeStorageError:       "No se pudieron guardar los datos en este dispositivo.",
		CodeDownloadError:      "La descarga de audio falló. Inténtalo de nuevo.",
		CodeDownloadCancelled:  "Descarga cancelada.",
		CodeGenerationTimeout:  "La narración está tardando más de lo esperado. Inténtalo en unos minutos.",
		CodeMissingVoiceID:     "Aún no hay una voz configurada. Graba una muestra de voz primero.",
		CodeCloneError:         "La configuración de voz necesita conexión a internet.",
		CodeVerificationError:  "No se pudo verificar tu voz con el servidor.",
		CodeQueueProcessingErr: "Algunos cambios pendientes aún no se pudieron sincronizar.",
	},
}

// UserMessage returns a short human-readable message for err in the given
// locale ("en", "es", ...). Errors without a known code map to the generic
// API failure message.
func UserMessage(err error, locale string) string {
	code := CodeOf(err)
	if code == "" {
		code = CodeAPIError
	}
	byCode, ok := messages[locale]
	if !ok {
		byCode = messages["en"]
	}
	if msg, ok := byCode[code]; ok {
		return msg
	}
	return messages["en"][CodeAPIError]
}
