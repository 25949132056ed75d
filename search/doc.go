// Copyright 2025 Poiesic Systems
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

// Package search runs semantic, related-content and keyword search across the
// searchable record kinds.
//
// Each kind is a category backed by a storage.Collection. A semantic search
// embeds the query once, asks every requested category for matches above the
// threshold, caps each category's hits, then merges them into one list
// ordered by similarity and truncates it to the overall limit. A failing
// category contributes no hits; it never fails the whole search.
//
// Category names are case-insensitive and accept aliases:
//
//	stories, memories  -> story
//	events             -> event
//	traditions         -> heritage
package search
