// Package catleg keeps Catala source files in sync with French law.
// It extracts the legislative articles quoted in Catala files, compares them
// with their reference version on Legifrance to detect textual drift and
// expiry, and renders Markdown skeletons of law texts.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency or concern (e.g., legifrance/, wdiff/, markdown/).
package catleg
