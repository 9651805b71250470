package render

import _ "embed"

// Built-in fallback artwork. The badge is used when a category has no
// stored badge (or the lookup fails); the banner is stamped on every
// export. Deployments can override both via configuration-provided assets
// in the category store.

//go:embed assets/badge.png
var defaultBadgePNG []byte

//go:embed assets/banner.png
var bannerPNG []byte
