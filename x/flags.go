/*
 * Copyright 2020 Dgraph Labs, Inc. and Contributors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package x

import (
	"github.com/spf13/pflag"
)

// FillCommonFlags stores flags shared by every csindexd subcommand that
// touches a store.
func FillCommonFlags(flag *pflag.FlagSet) {
	flag.String("store", "", "Directory holding the index files. Defaults to ~/.csindexd.")
	flag.String("indexer", "cindex", "Path to the cindex binary.")
	flag.String("searcher", "csearch", "Path to the csearch binary.")
	flag.Int("max_results", 100, "Maximum number of search results to return.")
}
