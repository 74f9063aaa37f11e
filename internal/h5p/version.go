package h5p

import "course-import/internal/store"

// ResolveVersion picks the library to bind for a requested (major, minor):
// the highest patch of that exact version, otherwise the highest version
// registered at all. ok is false only when versions is empty.
func ResolveVersion(versions []store.Library, major, minor int) (store.Library, bool) {
	var exact, newest store.Library
	var haveExact, haveNewest bool
	for _, v := range versions {
		if v.MajorVersion == major && v.MinorVersion == minor {
			if !haveExact || v.PatchVersion > exact.PatchVersion {
				exact, haveExact = v, true
			}
		}
		if !haveNewest || newer(v, newest) {
			newest, haveNewest = v, true
		}
	}
	if haveExact {
		return exact, true
	}
	return newest, haveNewest
}

func newer(a, b store.Library) bool {
	if a.MajorVersion != b.MajorVersion {
		return a.MajorVersion > b.MajorVersion
	}
	if a.MinorVersion != b.MinorVersion {
		return a.MinorVersion > b.MinorVersion
	}
	return a.PatchVersion > b.PatchVersion
}

func hasExact(versions []store.Library, lib store.Library) bool {
	for _, v := range versions {
		if v.MajorVersion == lib.MajorVersion && v.MinorVersion == lib.MinorVersion && v.PatchVersion == lib.PatchVersion {
			return true
		}
	}
	return false
}
