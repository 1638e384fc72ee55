// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package opts holds shared dependencies for the CLI commands
package opts

import (
	"github.com/walteh/packlate/pkg/cache"
	"github.com/walteh/packlate/pkg/config"
	"github.com/walteh/packlate/pkg/status"
)

// 🎛️ RootOpts aggregates the dependencies every command needs
type RootOpts struct {
	// Config is the packlate configuration
	Config *config.Config
	// Cache is the content-addressed result store
	Cache *cache.Store
	// Reporter prints user-facing progress and summaries
	Reporter *status.Reporter
}
