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

/*
Package config loads the optional aiwf configuration file.

🎯 Purpose:
- Points the installer at a template repository and ref
- Preselects tools for non interactive runs
- Configures command conversion targets

🔄 Flow:
 1. Find looks for .aiwf.hcl, .aiwf.yaml, .aiwf.yml or .aiwf.json in the workspace
 2. The parser registered for the file extension decodes it
 3. ApplyEnv reads GITHUB_TOKEN
 4. Validate fills defaults and normalizes paths

Without a file every field has a default, so a bare workspace installs the
upstream workflow templates from main.

🔍 Example:

	source {
	  repo = "github.com/org/templates"
	  ref  = "v1.4.0"
	}

	tools = ["cursor", "claude"]

	convert {
	  enabled = true

	  target "cursor" {
	    dir = ".cursor/commands"
	  }
	}
*/
package config
