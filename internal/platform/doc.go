// Package platform holds filesystem operations whose behavior differs across
// operating systems and volumes. Move falls back to copy-verify-delete when a
// rename crosses filesystems; RestoreExec keeps executable bits of extracted
// files on Unix.
package platform
