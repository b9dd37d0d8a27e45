package judge

import "github.com/santhosh-tekuri/jsonschema/v5"

const tokensSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["token"],
    "properties": {
      "token": {"type": "string", "minLength": 1}
    }
  }
}`

const resultsSchema = `{
  "type": "object",
  "required": ["submissions"],
  "properties": {
    "submissions": {
      "type": "array",
      "items": {
        "type": "object",
        "anyOf": [
          {"required": ["status_id"]},
          {"required": ["status"]}
        ],
        "properties": {
          "token": {"type": "string"},
          "status_id": {"type": "integer"},
          "status": {
            "type": "object",
            "required": ["id"],
            "properties": {"id": {"type": "integer"}}
          },
          "stdout": {"type": ["string", "null"]},
          "stderr": {"type": ["string", "null"]},
          "compile_output": {"type": ["string", "null"]},
          "time": {"type": ["string", "number", "null"]},
          "memory": {"type": ["integer", "number", "string", "null"]}
        }
      }
    }
  }
}`

var (
	tokensValidator  = jsonschema.MustCompileString("tokens.json", tokensSchema)
	resultsValidator = jsonschema.MustCompileString("results.json", resultsSchema)
)
