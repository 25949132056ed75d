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

package api

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string `validate:"required,hostname_port"`

	// ReadTimeout bounds reading a request.
	ReadTimeout time.Duration `validate:"gte=0"`

	// WriteTimeout bounds writing a response.
	WriteTimeout time.Duration `validate:"gte=0"`

	// RequestTimeout bounds the work done for one request. Zero disables it.
	RequestTimeout time.Duration `validate:"gte=0"`

	// SearchThreshold is the similarity threshold used when a search request
	// does not set one.
	SearchThreshold float64 `validate:"gte=-1,lte=1"`

	// MaxLimit caps the number of results a request may ask for.
	MaxLimit int `validate:"gte=1,lte=1000"`
}

// DefaultConfig returns settings suitable for local use.
func DefaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    2 * time.Minute,
		RequestTimeout:  90 * time.Second,
		SearchThreshold: 0.6,
		MaxLimit:        100,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid api config: %w", err)
	}
	return nil
}
