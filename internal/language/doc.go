// Package language provides language code normalization and the catalog of
// commentary languages the remote service accepts.
//
// Names, ISO 639-1/639-2 codes and BCP 47 tags all normalize to the 2-letter
// code sent in the submission's language field.
package language
