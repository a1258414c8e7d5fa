/*
 * Copyright (C) 2017 Dgraph Labs, Inc. and Contributors
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package x

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is the JSON envelope every handler writes: {success, data} on
// both the happy and error paths, per the HTTP surface contract.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// Reply writes data wrapped in a successful Response envelope.
func Reply(w http.ResponseWriter, data any) {
	writeResponse(w, http.StatusOK, Response{Success: true, Data: data})
}

// SetStatus writes msg wrapped in a failed Response envelope with the given
// HTTP status code.
func SetStatus(w http.ResponseWriter, code int, msg string) {
	writeResponse(w, code, Response{Success: false, Data: msg})
}

func writeResponse(w http.ResponseWriter, code int, rep Response) {
	js, err := json.Marshal(rep)
	if err != nil {
		panic(fmt.Sprintf("unable to marshal %+v: %v", rep, err))
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	w.Write(js)
}

// ParseRequest decodes r's JSON body into data, writing a failed Response
// and returning false on error.
func ParseRequest(w http.ResponseWriter, r *http.Request, data any) bool {
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(data); err != nil {
		SetStatus(w, http.StatusBadRequest, "unknown error")
		return false
	}
	return true
}
