// Package idpb holds the wire contract of the satkeeper identity provider:
// request and response messages, the gRPC service descriptor, and the client
// and server bindings.
//
// On the wire every message is a google.protobuf.Struct carried by grpc's
// default proto codec. The typed Go messages are converted at the stub
// boundary through their protojson form.
package idpb

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// toWire converts msg into its google.protobuf.Struct form.
func toWire(msg any) (*structpb.Struct, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("encode %T: %w", msg, err)
	}
	return s, nil
}

// fromWire fills msg from s. Unknown fields are ignored.
func fromWire(s *structpb.Struct, msg any) error {
	data, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("decode %T: %w", msg, err)
	}
	return nil
}
