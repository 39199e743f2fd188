// Package i18n translates user-facing messages. English format strings are
// the message keys; a gettext-style .po file per language supplies the
// translations and anything it leaves out prints in English.
package i18n
