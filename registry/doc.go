// Package registry provides types, validation and an HTTP client for
// npm-compatible package registries.
//
// A registry serves one JSON document per package, the packument, at
// {base}/{name}. Scoped names are escaped as {base}/@scope%2fname.
//
//	{
//	  "name": "express",
//	  "dist-tags": {"latest": "2.5.0"},
//	  "versions": {
//	    "2.5.0": {
//	      "name": "express",
//	      "version": "2.5.0",
//	      "dependencies": {"mime": ">= 0.0.1"},
//	      "dist": {"tarball": "https://registry.yarnpkg.com/express/-/express-2.5.0.tgz"}
//	    }
//	  }
//	}
//
// # Usage
//
// Fetch and validate a packument:
//
//	client := registry.NewClient("https://registry.yarnpkg.com")
//	pkg, err := client.GetPackument(ctx, "express")
//	if err != nil {
//	    // Handle validation or network errors
//	}
//
// Validate arbitrary JSON:
//
//	validator := registry.NewValidator()
//	err := validator.ValidatePackument(jsonData)
package registry
