// Package packagist provides a source adapter for Packagist.
//
// # Overview
//
// The adapter enriches library records whose registry is "packagist".
// Version, license and repository come from the Composer v2 metadata at
// https://repo.packagist.org/p2/{vendor}/{package}.json. Total downloads and
// favorites come from https://packagist.org/packages/{vendor}/{package}.json.
//
// # Usage
//
//	client := packagist.NewClient(integrations.Options{Cache: c})
//	md, err := client.Fetch(ctx, "symfony/console")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(md.Version, md.Downloads)
//
// # Version Selection
//
// The p2 version list is newest first. The adapter takes the first entry
// that is not a dev version, falling back to the first entry.
package packagist
