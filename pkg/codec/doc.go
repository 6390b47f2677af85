// Package codec translates between net/http and the canonical model.
//
// It covers three jobs:
//
//   - Header normalization: headers known to carry a delimited list of
//     structured values are expanded into one value per list item when the
//     transport delivered them folded onto a single line.
//   - Body decoding: gzip and deflate request bodies are decompressed and
//     fully buffered before the canonical request is built.
//   - Response serialization: canonical responses are written with every
//     header value appended individually and the body written with its
//     literal length.
package codec
