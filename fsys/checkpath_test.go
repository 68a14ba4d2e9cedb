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

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckNameAcceptsOrdinaryName(t *testing.T) {
	assert.NoError(t, checkName("report.txt"))
}

func TestCheckNameRejectsDotPrefix(t *testing.T) {
	err := checkName(".hidden")
	assert.Error(t, err)
	assert.Equal(t, KindAccessDenied, err.(*Error).Kind)
}

func TestCheckNameRejectsTilde(t *testing.T) {
	assert.Error(t, checkName("a~b"))
	assert.Error(t, checkName("~"))
}

func TestCheckNameRejectsOverlongName(t *testing.T) {
	ok := strings.Repeat("a", maxNameLen)
	assert.NoError(t, checkName(ok))

	tooLong := strings.Repeat("a", maxNameLen+1)
	assert.Error(t, checkName(tooLong))
}
