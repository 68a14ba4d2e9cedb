// Copyright 2025 The colafs Authors
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

package fsys

import "strings"

// checkName reproduces the original checkPath validation, applied to a
// fully composed entry name (the COLA-relative path, without a leading
// separator): reject names longer than cola.MaxNameLen, names beginning
// with '.', and names containing '~' anywhere.
func checkName(name string) error {
	if len(name) > maxNameLen || strings.HasPrefix(name, ".") || strings.Contains(name, "~") {
		return errOf(KindAccessDenied, "checkName", nil)
	}
	return nil
}
